// Package pep440 implements version parsing and range matching for PEP 440
// (https://peps.python.org/pep-0440/), the Python ecosystem's version
// scheme. Adapted from claircore's pkg/pep440: the parsing grammar and
// Version shape are kept verbatim, but comparison no longer goes through
// claircore.Version's fixed-width int array (that type doesn't exist outside
// the indexer/matcher persistence path this module drops) — instead
// (*Version).Compare normalizes directly to a same-shape int slice and
// compares it in place.
package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var pattern *regexp.Regexp

func init() {
	// This is the regexp used in the "versioning" package, as noted in
	// https://www.python.org/dev/peps/pep-0440/#id81
	const r = `v?` +
		`(?:` +
		`(?:(?P<epoch>[0-9]+)!)?` + // epoch
		`(?P<release>[0-9]+(?:\.[0-9]+)*)` + // release segment
		`(?P<pre>[-_\.]?(?P<pre_l>(a|b|c|rc|alpha|beta|pre|preview))[-_\.]?(?P<pre_n>[0-9]+)?)?` + // pre release
		`(?P<post>(?:-(?P<post_n1>[0-9]+))|(?:[-_\.]?(?P<post_l>post|rev|r)[-_\.]?(?P<post_n2>[0-9]+)?))?` + // post release
		`(?P<dev>[-_\.]?(?P<dev_l>dev)[-_\.]?(?P<dev_n>[0-9]+)?)?` + // dev release
		`)` +
		`(?:\+(?P<local>[a-z0-9]+(?:[-_\.][a-z0-9]+)*))?` // local version
	pattern = regexp.MustCompile(r)
}

// Version represents a canonical-ish representation of a PEP 440 version.
//
// Local revisions are discarded.
type Version struct {
	Epoch   int
	Release []int
	Pre     struct {
		Label string
		N     int
	}
	Post int
	Dev  int
}

// ordinal returns a fixed-width slice of integers allowing version
// comparison with no special-casing, following the same 10-slot layout as
// claircore.Version: release is normalized to five numbers, and a Dev
// revision without a Pre or Post sorts earlier than a Pre revision.
func (v *Version) ordinal() (c [10]int64) {
	const (
		epoch = 0
		rel   = 1
		preL  = 6
		preN  = 7
		post  = 8
		dev   = 9
	)
	c[epoch] = int64(v.Epoch)
	for i, n := range v.Release {
		if i > 4 {
			break
		}
		c[rel+i] = int64(n)
	}
	switch v.Pre.Label {
	case "a":
		c[preL] = -3
	case "b":
		c[preL] = -2
	case "rc":
		c[preL] = -1
	}
	c[preN] = int64(v.Pre.N)
	c[post] = int64(v.Post)
	if v.Dev != 0 {
		if v.Post != 0 || c[preL] != 0 {
			c[dev] = -int64(v.Dev)
		} else {
			const minInt = -(int64(1) << 62)
			c[preL] = minInt + int64(v.Dev)
		}
	}
	return c
}

// String returns the canonicalized representation of the Version.
func (v *Version) String() string {
	var b strings.Builder
	if v.Epoch != 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, n := range v.Release {
		if i != 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatInt(int64(n), 10))
	}
	if v.Pre.Label != "" {
		b.WriteString(v.Pre.Label)
		b.WriteString(strconv.FormatInt(int64(v.Pre.N), 10))
	}
	if v.Post != 0 {
		fmt.Fprintf(&b, ".post%d", v.Post)
	}
	if v.Dev != 0 {
		fmt.Fprintf(&b, ".dev%d", v.Dev)
	}
	return b.String()
}

// Compare returns an integer comparing two versions: 0 if a == b, -1 if
// a < b, +1 if a > b.
func (a *Version) Compare(b *Version) int {
	av, bv := a.ordinal(), b.ordinal()
	for i := range av {
		switch {
		case av[i] < bv[i]:
			return -1
		case av[i] > bv[i]:
			return 1
		}
	}
	return 0
}

// Parse attempts to extract a PEP 440 version string from the provided
// string.
func Parse(s string) (v Version, err error) {
	if !pattern.MatchString(s) {
		return v, fmt.Errorf("pep440: invalid version: %q", s)
	}

	ms := pattern.FindStringSubmatch(s)
	for i, n := range pattern.SubexpNames() {
		if ms[i] == "" {
			continue
		}

		switch n {
		case "epoch":
			v.Epoch, err = strconv.Atoi(ms[i])
			if err != nil {
				return v, err
			}
		case "release":
			ns := strings.Split(ms[i], ".")
			v.Release = make([]int, len(ns))
			for i, n := range ns {
				v.Release[i], err = strconv.Atoi(n)
				if err != nil {
					return v, err
				}
			}
		case "pre_l":
			switch l := ms[i]; l {
			case "a", "alpha":
				v.Pre.Label = "a"
			case "b", "beta":
				v.Pre.Label = "b"
			case "rc", "c", "pre", "preview":
				v.Pre.Label = "rc"
			default:
				return v, fmt.Errorf("pep440: unknown pre-release label %q", l)
			}
		case "pre_n":
			v.Pre.N, err = strconv.Atoi(ms[i])
			if err != nil {
				return v, err
			}
		case "post_n1", "post_n2":
			v.Post, err = strconv.Atoi(ms[i])
			if err != nil {
				return v, err
			}
		case "dev_n":
			v.Dev, err = strconv.Atoi(ms[i])
			if err != nil {
				return v, err
			}
		}
	}

	return v, nil
}

// Versions implements sort.Interface.
type Versions []Version

func (vs Versions) Len() int           { return len(vs) }
func (vs Versions) Less(i, j int) bool { return vs[i].Compare(&vs[j]) == -1 }
func (vs Versions) Swap(i, j int)      { vs[i], vs[j] = vs[j], vs[i] }
