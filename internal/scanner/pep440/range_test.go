package pep440

import "testing"

func TestRangeMatch(t *testing.T) {
	tt := []struct {
		rng     string
		version string
		want    bool
	}{
		{">=1.0.0,<2.0.0", "1.5.0", true},
		{">=1.0.0,<2.0.0", "2.0.0", false},
		{"==1.2.3", "1.2.3", true},
		{"==1.2.3", "1.2.4", false},
		{"!=1.2.3", "1.2.4", true},
		{"~=1.4.2", "1.4.5", true},
		{"~=1.4.2", "1.3.9", false},
	}
	for _, tc := range tt {
		r, err := ParseRange(tc.rng)
		if err != nil {
			t.Fatalf("ParseRange(%q): %v", tc.rng, err)
		}
		v, err := Parse(tc.version)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.version, err)
		}
		if got := r.Match(&v); got != tc.want {
			t.Errorf("Range(%q).Match(%q) = %v, want %v", tc.rng, tc.version, got, tc.want)
		}
	}
}

func TestParseRangeInvalidOperator(t *testing.T) {
	if _, err := ParseRange("??1.0.0"); err == nil {
		t.Fatal("expected an error for an unknown range operator")
	}
}
