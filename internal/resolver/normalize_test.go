package resolver

import (
	"testing"

	"github.com/bazbom/bazbom"
)

func TestNormalizeSeverityPrefersCVSSBaseScore(t *testing.T) {
	adv := bazbom.Advisory{CVSSBaseScore: 9.8, VendorSeverity: "low"}
	if got := normalizeSeverity(adv); got != bazbom.SeverityCritical {
		t.Fatalf("normalizeSeverity() = %v, want %v", got, bazbom.SeverityCritical)
	}
}

func TestNormalizeSeverityFallsBackToVectorScore(t *testing.T) {
	// CVE-2021-44228 (Log4Shell)'s published NVD vector; base score 9.8.
	adv := bazbom.Advisory{CVSSVector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"}
	if got := normalizeSeverity(adv); got != bazbom.SeverityCritical {
		t.Fatalf("normalizeSeverity() = %v, want %v", got, bazbom.SeverityCritical)
	}
}

func TestNormalizeSeverityFallsBackToVendorString(t *testing.T) {
	adv := bazbom.Advisory{VendorSeverity: "important"}
	if got := normalizeSeverity(adv); got != bazbom.SeverityHigh {
		t.Fatalf("normalizeSeverity() = %v, want %v", got, bazbom.SeverityHigh)
	}
}

func TestNormalizeSeverityUnvectoredFallsBackToVendor(t *testing.T) {
	adv := bazbom.Advisory{CVSSVector: "garbage-no-metrics", VendorSeverity: "critical"}
	if got := normalizeSeverity(adv); got != bazbom.SeverityCritical {
		t.Fatalf("normalizeSeverity() = %v, want %v", got, bazbom.SeverityCritical)
	}
}

func TestNormalizeSeverityNothingAvailableDegradesToMedium(t *testing.T) {
	if got := normalizeSeverity(bazbom.Advisory{}); got != bazbom.SeverityMedium {
		t.Fatalf("normalizeSeverity() = %v, want %v", got, bazbom.SeverityMedium)
	}
}

func TestCvssVectorScore(t *testing.T) {
	// CVE-2021-44228 (Log4Shell): NVD-published base score 9.8.
	if f, ok := cvssVectorScore("CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"); !ok || f != 9.8 {
		t.Fatalf("cvssVectorScore() = (%v, %v), want (9.8, true)", f, ok)
	}
	// A scope-changed vector, exercising the Scope=Changed impact formula
	// and its own Roundup branch instead of the unchanged-scope one above.
	// Expected value hand-computed from the CVSS v3.1 spec formula.
	if f, ok := cvssVectorScore("CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:H/I:N/A:N"); !ok || f != 7.4 {
		t.Fatalf("cvssVectorScore() = (%v, %v), want (7.4, true)", f, ok)
	}
	// Missing a required metric (no PR) can't be scored.
	if _, ok := cvssVectorScore("CVSS:3.1/AV:N/AC:L/UI:N/S:U/C:H/I:H/A:H"); ok {
		t.Fatal("expected cvssVectorScore to fail on a vector missing a required metric")
	}
	if _, ok := cvssVectorScore("no score here"); ok {
		t.Fatal("expected cvssVectorScore to fail on a vector with no recognizable metrics")
	}
}
