package pattern

import "testing"

func TestMatchStar(t *testing.T) {
	ok, err := Match("*.txt", "report.txt", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected match")
	}
	ok, err = Match("*.txt", "report.md", 0)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no match")
	}
}

func TestMatchQuestion(t *testing.T) {
	ok, _ := Match("fil?.txt", "file.txt", 0)
	if !ok {
		t.Fatal("expected match")
	}
	ok, _ = Match("fil?.txt", "file2.txt", 0)
	if ok {
		t.Fatal("expected no match")
	}
}

func TestMatchCharClass(t *testing.T) {
	ok, _ := Match("[abc]x", "bx", 0)
	if !ok {
		t.Fatal("expected match")
	}
	ok, _ = Match("[!abc]x", "bx", 0)
	if ok {
		t.Fatal("expected negated class to reject b")
	}
	ok, _ = Match("[!abc]x", "dx", 0)
	if !ok {
		t.Fatal("expected negated class to accept d")
	}
}

func TestFilenamesModeStopsAtSlash(t *testing.T) {
	ok, _ := Match("a*b", "a/x/b", Filenames)
	if ok {
		t.Fatal("expected '*' under Filenames to not cross '/'")
	}
	ok, _ = Match("a**b", "a/x/b", 0)
	if !ok {
		t.Fatal("expected '**' to cross '/'")
	}
}

func TestHasMeta(t *testing.T) {
	cases := map[string]bool{
		"plain":  false,
		"a*b":    true,
		"a?b":    true,
		"a[bc]d": true,
		`a\b`:    true,
	}
	for s, want := range cases {
		if got := HasMeta(s); got != want {
			t.Errorf("HasMeta(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestEntireStringAnchors(t *testing.T) {
	re := Regexp("abc", EntireString)
	if re != "^abc$" {
		t.Fatalf("got %q", re)
	}
}
