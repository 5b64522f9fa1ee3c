package stringutils

import "testing"

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"channel_not_found", 7, "channel..."},
		{"ünïcödé", 3, "ünï..."},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.n); got != c.want {
			t.Errorf("Truncate(%q, %d): expected %q, got %q", c.in, c.n, c.want, got)
		}
	}
}
