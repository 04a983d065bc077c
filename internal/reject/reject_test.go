package reject

import (
	"os"
	"path/filepath"
	"testing"

	"stockgen/internal/metawrite"
	"stockgen/internal/models"
)

type stubEmbedder struct {
	paths  []string
	fields []metawrite.Fields
}

func (s *stubEmbedder) Embed(path string, f metawrite.Fields) error {
	s.paths = append(s.paths, path)
	s.fields = append(s.fields, f)
	return nil
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("media"), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTagFor(t *testing.T) {
	tests := []struct{ in, want string }{
		{"specific trademarked logo visible", "Brand_Logo"},
		{"watermark", "Watermark"},
		{"image is blurry", "Blurry"},
		{"low quality", "Low_Quality"},
		{"gibberish", "Text_Gibberish"},
		{"irrelevant-text", "Text_Irrelevant"},
		{"text overlay present", "Text_Overlay"},
		{"human no_head", "Human_No_Head"},
		{"human nudity", "Human_NSFW"},
		{"human presence detected", "Human_Presence"},
		{"animal back_view", "Animal_Back_View"},
		{"partial_defect", "Partial_Defect"},
		{"deformed object", "Deformed_Object"},
		{"unrecognizable subject", "Unrecognizable"},
		{"famous trademark", "Famous_Trademark"},
		{"Unrecognized Response", "AI_Response_Error"},
		{"something else entirely", ""},
	}
	for _, tt := range tests {
		if got := TagFor(tt.in); got != tt.want {
			t.Errorf("TagFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRouteMovesWithTagName(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := writeFile(t, in, "photo.jpg")

	r := New(out, nil)
	if err := r.Route(src, []string{"watermark", "brand logo"}, "stamp visible", nil); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(out, "rejected", "Watermark_Brand_Logo.jpg")
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still exists")
	}
}

func TestRouteCollisionSuffix(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	first := writeFile(t, in, "a.jpg")
	second := writeFile(t, in, "b.jpg")

	r := New(out, nil)
	if err := r.Route(first, []string{"watermark"}, "", nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Route(second, []string{"watermark"}, "", nil); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(out, "rejected", "Watermark.jpg")); err != nil {
		t.Errorf("first destination missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "rejected", "Watermark (1).jpg")); err != nil {
		t.Errorf("suffixed destination missing: %v", err)
	}
}

func TestRouteReasonFallback(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := writeFile(t, in, "a.png")

	r := New(out, nil)
	if err := r.Route(src, nil, "subject looks wrong: too dark??", nil); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(out, "rejected", "subject looks wrong too dark.png")
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
}

func TestRouteEmptyReasonUsesRejected(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := writeFile(t, in, "a.png")

	r := New(out, nil)
	if err := r.Route(src, nil, "", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "rejected", "Rejected.png")); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
}

func TestRouteEmbedsMetadata(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := writeFile(t, in, "a.jpg")
	embedder := &stubEmbedder{}

	gen := &models.Generated{
		Title:       "City Street At Night",
		Description: "Neon lights over a wet street.",
		Keywords:    []string{"city", "night"},
		Category:    "Buildings/Landmarks,Abstract",
	}
	r := New(out, embedder)
	if err := r.Route(src, []string{"watermark"}, "", gen); err != nil {
		t.Fatal(err)
	}

	if len(embedder.paths) != 1 {
		t.Fatalf("embed called %d times, want 1", len(embedder.paths))
	}
	if embedder.paths[0] != filepath.Join(out, "rejected", "Watermark.jpg") {
		t.Errorf("embedded onto %q", embedder.paths[0])
	}
	if embedder.fields[0].Title != gen.Title {
		t.Errorf("embedded title %q", embedder.fields[0].Title)
	}
}

func TestRouteNoOutputFolderIsNoop(t *testing.T) {
	in := t.TempDir()
	src := writeFile(t, in, "a.jpg")

	r := New("", nil)
	if err := r.Route(src, []string{"watermark"}, "", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source should be untouched: %v", err)
	}
}
