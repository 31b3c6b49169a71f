package accountsrv

import "testing"

func TestValidName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"alice", true},
		{"Alice Smith", true},
		{"al", false},
		{"a name that is far too long", false},
		{" alice", false},
		{"alice ", false},
		{"double  space", false},
		{"semi;colon", false},
		{"under_score", true},
		{"Ærøskøbing", true},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidName(NormalizeName(c.name)); got != c.want {
			t.Errorf("ValidName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
