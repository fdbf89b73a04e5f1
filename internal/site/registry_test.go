package site

import (
	"errors"
	"testing"
)

func TestNewRegistry_NamesAndOrder(t *testing.T) {
	t.Parallel()
	reg, err := NewRegistry([]string{
		"Python=https://docs.python.org/3/",
		"https://go.dev/doc/",
	})
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 sites, got %d", reg.Len())
	}

	sites := reg.ListAll()
	if sites[0].Name != "Python" || sites[0].RootURL != "https://docs.python.org/3/" {
		t.Errorf("unexpected site 0: %+v", sites[0])
	}
	if sites[0].Index != 0 || sites[1].Index != 1 {
		t.Error("indexes must follow configuration order")
	}
	// Bare URL falls back to host as display name.
	if sites[1].Name != "go.dev" {
		t.Errorf("expected host fallback name, got %q", sites[1].Name)
	}
}

func TestNewRegistry_RejectsBadURLs(t *testing.T) {
	t.Parallel()
	for _, entry := range []string{
		"ftp://example.com/docs",
		"not a url",
		"Docs=/relative/path",
	} {
		if _, err := NewRegistry([]string{entry}); err == nil {
			t.Errorf("expected error for entry %q", entry)
		}
	}
}

func TestResolve_OutOfRange(t *testing.T) {
	t.Parallel()
	reg, err := NewRegistry([]string{"https://docs.python.org/3/"})
	if err != nil {
		t.Fatal(err)
	}

	for _, idx := range []int{-1, 1, 42} {
		_, err := reg.Resolve(idx)
		var indexErr *IndexError
		if !errors.As(err, &indexErr) {
			t.Errorf("Resolve(%d): expected IndexError, got %v", idx, err)
		}
	}

	s, err := reg.Resolve(0)
	if err != nil {
		t.Fatal(err)
	}
	if s.RootURL != "https://docs.python.org/3/" {
		t.Errorf("unexpected site: %+v", s)
	}
}

func TestListAll_Empty(t *testing.T) {
	t.Parallel()
	reg, err := NewRegistry(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := reg.ListAll(); len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
}

func TestSplitEntry(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		name string
		url  string
	}{
		{"Python=https://docs.python.org/3/", "Python", "https://docs.python.org/3/"},
		{"https://go.dev/doc/", "", "https://go.dev/doc/"},
		// "=" inside the URL query must not be treated as a name delimiter.
		{"https://x.dev/doc?v=2", "", "https://x.dev/doc?v=2"},
		{"API Docs=https://x.dev/doc?v=2", "API Docs", "https://x.dev/doc?v=2"},
	}
	for _, tt := range tests {
		name, rawURL := splitEntry(tt.in)
		if name != tt.name || rawURL != tt.url {
			t.Errorf("splitEntry(%q) = (%q, %q), want (%q, %q)", tt.in, name, rawURL, tt.name, tt.url)
		}
	}
}
