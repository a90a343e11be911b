package filereader

import "testing"

func TestSplitADS(t *testing.T) {
	cases := []struct {
		path     string
		wantBase string
		wantName string
		wantOK   bool
	}{
		{`C:\Users\a.txt`, `C:\Users\a.txt`, "", false},
		{`C:\Users\a.txt:secret`, `C:\Users\a.txt`, "secret", true},
		{`C:\a.txt:Zone.Identifier`, `C:\a.txt`, "Zone.Identifier", true},
		{`Users\a.txt`, `Users\a.txt`, "", false},
	}
	for _, c := range cases {
		base, name, ok := splitADS(c.path)
		if base != c.wantBase || name != c.wantName || ok != c.wantOK {
			t.Errorf("splitADS(%q) = (%q, %q, %v), want (%q, %q, %v)",
				c.path, base, name, ok, c.wantBase, c.wantName, c.wantOK)
		}
	}
}
