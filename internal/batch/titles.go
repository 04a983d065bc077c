package batch

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// NormalizeTitle lower-cases a title, keeps only alphanumeric and whitespace
// characters, and collapses whitespace runs. Two titles that normalize
// equally are considered duplicates.
func NormalizeTitle(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// titleSet tracks normalized titles handed out during one batch run.
type titleSet struct {
	mu   sync.Mutex
	used map[string]struct{}
}

func newTitleSet() *titleSet {
	return &titleSet{used: make(map[string]struct{})}
}

// Claim registers the title's normalized form and returns the title,
// appending an incrementing numeric suffix to the original when the
// normalized form is already taken.
func (t *titleSet) Claim(title string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	base := NormalizeTitle(title)
	if _, ok := t.used[base]; !ok {
		t.used[base] = struct{}{}
		return title
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s %d", title, i)
		norm := NormalizeTitle(candidate)
		if _, ok := t.used[norm]; !ok {
			t.used[norm] = struct{}{}
			return candidate
		}
	}
}
