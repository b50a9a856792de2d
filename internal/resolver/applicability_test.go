package resolver

import (
	"testing"

	"github.com/bazbom/bazbom"
)

func TestApplicableSemverRange(t *testing.T) {
	tests := []struct {
		name    string
		version string
		rng     string
		want    bool
	}{
		{"inside range", "1.2.3", ">=1.0.0,<2.0.0", true},
		{"on lower bound inclusive", "1.0.0", ">=1.0.0,<2.0.0", true},
		{"on upper bound exclusive", "2.0.0", ">=1.0.0,<2.0.0", false},
		{"below range", "0.9.0", ">=1.0.0,<2.0.0", false},
		{"unparseable range version is conservative", "1.0.0", ">=not-a-version", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := bazbom.Package{Ecosystem: bazbom.EcosystemNpm, Name: "lodash", Version: tt.version}
			adv := bazbom.Advisory{Affected: []bazbom.AffectedRange{
				{Ecosystem: bazbom.EcosystemNpm, Name: "lodash", Range: tt.rng},
			}}
			if got := applicable(pkg, adv); got != tt.want {
				t.Errorf("applicable(%s, %s) = %v, want %v", tt.version, tt.rng, got, tt.want)
			}
		})
	}
}

func TestApplicableMalformedPackageVersionIsConservative(t *testing.T) {
	pkg := bazbom.Package{Ecosystem: bazbom.EcosystemNpm, Name: "lodash", Version: "not-a-semver-at-all"}
	adv := bazbom.Advisory{Affected: []bazbom.AffectedRange{
		{Ecosystem: bazbom.EcosystemNpm, Name: "lodash", Range: "<1.0.0"},
	}}
	if !applicable(pkg, adv) {
		t.Fatal("expected a malformed package version to be treated as applicable")
	}
}

func TestApplicableNoAffectedRangesIsConservative(t *testing.T) {
	pkg := bazbom.Package{Ecosystem: bazbom.EcosystemNpm, Name: "lodash", Version: "4.17.20"}
	if !applicable(pkg, bazbom.Advisory{}) {
		t.Fatal("expected an advisory with no declared ranges to apply to every version")
	}
}

func TestApplicableRangeScopedToDifferentPackageDoesNotMatch(t *testing.T) {
	pkg := bazbom.Package{Ecosystem: bazbom.EcosystemNpm, Name: "lodash", Version: "4.17.20"}
	adv := bazbom.Advisory{Affected: []bazbom.AffectedRange{
		{Ecosystem: bazbom.EcosystemNpm, Name: "left-pad", Range: "<9.9.9"},
	}}
	if applicable(pkg, adv) {
		t.Fatal("range scoped to a different package name must not match")
	}
}

func TestApplicablePEP440(t *testing.T) {
	pkg := bazbom.Package{Ecosystem: bazbom.EcosystemPyPI, Name: "flask", Version: "2.0.0"}
	adv := bazbom.Advisory{Affected: []bazbom.AffectedRange{
		{Ecosystem: bazbom.EcosystemPyPI, Name: "flask", Range: "<2.0.1"},
	}}
	if !applicable(pkg, adv) {
		t.Fatal("expected flask 2.0.0 to match <2.0.1")
	}

	adv2 := bazbom.Advisory{Affected: []bazbom.AffectedRange{
		{Ecosystem: bazbom.EcosystemPyPI, Name: "flask", Range: ">=2.0.1"},
	}}
	if applicable(pkg, adv2) {
		t.Fatal("expected flask 2.0.0 to not match >=2.0.1")
	}
}

func TestApplicableMavenOrdering(t *testing.T) {
	pkg := bazbom.Package{Ecosystem: bazbom.EcosystemMaven, Name: "log4j-core", Version: "2.14.1"}
	adv := bazbom.Advisory{Affected: []bazbom.AffectedRange{
		{Ecosystem: bazbom.EcosystemMaven, Name: "log4j-core", Range: ">=2.0.0,<2.15.0"},
	}}
	if !applicable(pkg, adv) {
		t.Fatal("expected log4j-core 2.14.1 to fall within the log4shell range")
	}
}

func TestApplicableRubyGemsOrdering(t *testing.T) {
	pkg := bazbom.Package{Ecosystem: bazbom.EcosystemRubyGems, Name: "rack", Version: "2.2.3"}
	adv := bazbom.Advisory{Affected: []bazbom.AffectedRange{
		{Ecosystem: bazbom.EcosystemRubyGems, Name: "rack", Range: "<2.2.4"},
	}}
	if !applicable(pkg, adv) {
		t.Fatal("expected rack 2.2.3 to match <2.2.4")
	}
}

func TestApplicableExactVersionMatch(t *testing.T) {
	pkg := bazbom.Package{Ecosystem: bazbom.EcosystemCargo, Name: "time", Version: "0.1.43"}
	adv := bazbom.Advisory{Affected: []bazbom.AffectedRange{
		{Ecosystem: bazbom.EcosystemCargo, Name: "time", Range: "0.1.43"},
	}}
	if !applicable(pkg, adv) {
		t.Fatal("expected a bare-version range to match the exact same version")
	}
	adv.Affected[0].Range = "0.1.44"
	if applicable(pkg, adv) {
		t.Fatal("expected a bare-version range to not match a different version")
	}
}
