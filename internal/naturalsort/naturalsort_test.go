package naturalsort

import (
	"reflect"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "img1.jpg", "img1.jpg", 0},
		{"numeric chunk order", "img2.jpg", "img10.jpg", -1},
		{"numeric reversed", "img10.jpg", "img2.jpg", 1},
		{"text order", "apple", "banana", -1},
		{"prefix shorter first", "img", "img2", -1},
		{"leading zeros equal value", "img002", "img2", 0},
		{"multi chunk", "a1b2", "a1b10", -1},
		{"text before number", "1file", "afile", 1},
		{"text chunk before number chunk", "img.jpg", "img1.jpg", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSort(t *testing.T) {
	items := []string{"img10.jpg", "img2.jpg", "img.jpg", "img1.jpg", "cover.jpg"}
	Sort(items)

	want := []string{"cover.jpg", "img.jpg", "img1.jpg", "img2.jpg", "img10.jpg"}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("Sort = %v, want %v", items, want)
	}
}
