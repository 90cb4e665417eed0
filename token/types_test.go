package token

import "testing"

func TestTokenString(t *testing.T) {
	cases := map[Token]string{
		LAND:      "&&",
		SEMIFALL:  ";&",
		DSEMIFALL: ";;&",
		IF:        "if",
		DLBRACK:   "[[",
	}
	for tok, want := range cases {
		if got := tok.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", tok, got, want)
		}
	}
}

func TestTokenStringUnknown(t *testing.T) {
	got := Token(9999).String()
	if got != "token(9999)" {
		t.Fatalf("got %q", got)
	}
}

func TestPositionString(t *testing.T) {
	p := Position{Line: 3, Column: 7}
	if got, want := p.String(), "3:7"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
