package resolver

import (
	"strings"

	"github.com/Masterminds/semver"

	"github.com/bazbom/bazbom"
	"github.com/bazbom/bazbom/internal/gemversion"
	"github.com/bazbom/bazbom/internal/maven"
	"github.com/bazbom/bazbom/internal/scanner/pep440"
)

// applicable reports whether pkg's concrete version falls inside at least
// one of adv's Affected ranges for pkg's ecosystem, per spec.md §4.4 item 6.
// A version or range this function cannot parse is treated as applicable —
// the conservative default spec.md calls for twice: once for boundary cases
// ("exactly on an affected-range boundary" must respect the range's own
// inclusivity) and once for malformed input ("versions that cannot be
// parsed are treated as applicable").
func applicable(pkg bazbom.Package, adv bazbom.Advisory) bool {
	if len(adv.Affected) == 0 {
		// No declared ranges at all means the advisory doesn't scope itself
		// to a version; conservatively, every version is affected.
		return true
	}
	for _, rng := range adv.Affected {
		if rng.Ecosystem != pkg.Ecosystem || rng.Name != pkg.Name {
			continue
		}
		if matchRange(pkg.Ecosystem, pkg.Version, rng.Range) {
			return true
		}
	}
	return false
}

// matchRange evaluates version against the ecosystem-native range
// expression rng, using each ecosystem's own comparison rules per spec.md
// §4.4 item 6.
func matchRange(eco bazbom.Ecosystem, version, rng string) bool {
	rng = strings.TrimSpace(rng)
	if rng == "" {
		return true
	}

	switch eco {
	case bazbom.EcosystemNpm, bazbom.EcosystemCargo, bazbom.EcosystemGoModules:
		return matchComparators(rng, func(a, b string) (int, bool) {
			av, aerr := semver.NewVersion(a)
			bv, berr := semver.NewVersion(b)
			if aerr != nil || berr != nil {
				return 0, false
			}
			return av.Compare(bv), true
		}, version)
	case bazbom.EcosystemPyPI:
		v, err := pep440.Parse(version)
		if err != nil {
			return true
		}
		r, err := pep440.ParseRange(rng)
		if err != nil {
			return true
		}
		return r.Match(&v)
	case bazbom.EcosystemMaven:
		return matchComparators(rng, func(a, b string) (int, bool) {
			av, aerr := maven.ParseVersion(a)
			bv, berr := maven.ParseVersion(b)
			if aerr != nil || berr != nil {
				return 0, false
			}
			return av.Compare(bv), true
		}, version)
	case bazbom.EcosystemRubyGems, bazbom.EcosystemComposer:
		return matchComparators(rng, func(a, b string) (int, bool) {
			av, aerr := gemversion.Parse(a)
			bv, berr := gemversion.Parse(b)
			if aerr != nil || berr != nil {
				return 0, false
			}
			return av.Compare(bv), true
		}, version)
	default:
		return true
	}
}

// comparator is one "<op> <version>" clause of a comma-separated range
// expression, e.g. the ">=1.2.0" half of ">=1.2.0,<1.2.5".
type comparator struct {
	op  string
	ver string
}

var comparatorOps = []string{">=", "<=", "==", "!=", ">", "<"}

func parseComparators(rng string) []comparator {
	var out []comparator
	for _, clause := range strings.Split(rng, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		for _, op := range comparatorOps {
			if strings.HasPrefix(clause, op) {
				out = append(out, comparator{op: op, ver: strings.TrimSpace(clause[len(op):])})
				break
			}
		}
	}
	return out
}

// matchComparators evaluates every clause of rng against version using
// compare(version, clauseVersion). Any clause whose versions fail to parse
// makes the whole range conservatively match, per spec.md §4.4 item 6's
// "versions that cannot be parsed are treated as applicable" rule.
func matchComparators(rng string, compare func(a, b string) (int, bool), version string) bool {
	clauses := parseComparators(rng)
	if len(clauses) == 0 {
		// Not a comparator expression this parser recognizes (e.g. a bare
		// version meaning exact match).
		d, ok := compare(version, rng)
		if !ok {
			return true
		}
		return d == 0
	}
	for _, c := range clauses {
		d, ok := compare(version, c.ver)
		if !ok {
			return true
		}
		var satisfied bool
		switch c.op {
		case ">=":
			satisfied = d >= 0
		case "<=":
			satisfied = d <= 0
		case ">":
			satisfied = d > 0
		case "<":
			satisfied = d < 0
		case "==":
			satisfied = d == 0
		case "!=":
			satisfied = d != 0
		}
		if !satisfied {
			return false
		}
	}
	return true
}
