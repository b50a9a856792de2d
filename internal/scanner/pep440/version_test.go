package pep440

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tt := []struct {
		name string
		in   string
		want Version
	}{
		{
			name: "simple",
			in:   "1.0.0",
			want: Version{Release: []int{1, 0, 0}},
		},
		{
			name: "epoch and pre-release",
			in:   "1!2.3.4a5",
			want: Version{
				Epoch:   1,
				Release: []int{2, 3, 4},
				Pre: struct {
					Label string
					N     int
				}{Label: "a", N: 5},
			},
		},
		{
			name: "post and dev",
			in:   "2.0.0.post1.dev2",
			want: Version{Release: []int{2, 0, 0}, Post: 1, Dev: 2},
		},
		{
			name: "calendar style",
			in:   "2019.3",
			want: Version{Release: []int{2019, 3}},
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("not-a-version!!!"); err == nil {
		t.Fatal("expected an error for a malformed version string")
	}
}

func TestCompare(t *testing.T) {
	tt := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.1", -1},
		{"1.0.1", "1.0.0", 1},
		{"1.0.0", "1.0.0", 0},
		{"1.0.0a1", "1.0.0", -1},
		{"1.0.0.dev1", "1.0.0a1", -1},
		{"1.0.0.post1", "1.0.0", 1},
		{"2!1.0.0", "1.0.0", 1},
	}
	for _, tc := range tt {
		av, err := Parse(tc.a)
		if err != nil {
			t.Fatal(err)
		}
		bv, err := Parse(tc.b)
		if err != nil {
			t.Fatal(err)
		}
		if got := av.Compare(&bv); got != tc.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
