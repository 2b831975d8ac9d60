package gbbs

import (
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"LINE ONE\rLINE TWO\r", "LINE ONE\nLINE TWO\n"},
		{"PAD\x00\x00\x00DED", "PADDED"},
		{"TAB\tAND\nLF", "TAB\tAND\nLF"},
		{"BELL\x07 ESC\x1b DEL\x7f", "BELL� ESC� DEL�"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Render([]byte(tt.raw)); got != tt.want {
			t.Errorf("Render(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSplitMail(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"padded tail dropped", "one\x04two\x04\x00\x00\x00", []string{"one", "two"}},
		{"unterminated tail kept", "one\x04two", []string{"one", "two"}},
		{"no separator", "just text", []string{"just text"}},
		{"empty", "", nil},
		{"empty fragments", "\x04\x04", []string{"", ""}},
	}
	for _, tt := range tests {
		got := SplitMail([]byte(tt.raw))
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %d fragments %q, want %d", tt.name, len(got), got, len(tt.want))
			continue
		}
		for i := range got {
			if string(got[i]) != tt.want[i] {
				t.Errorf("%s: fragment %d = %q, want %q", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}
