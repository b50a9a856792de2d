package resolver

import (
	"math"
	"strings"

	"github.com/bazbom/bazbom"
)

// CVSS v3.1 base-metric weights, per the FIRST.org CVSS v3.1 Specification
// Document §8.1's metric tables. PR (Privileges Required) has two tables
// because its weight depends on Scope.
var (
	cvssAV          = map[string]float64{"N": 0.85, "A": 0.62, "L": 0.55, "P": 0.2}
	cvssAC          = map[string]float64{"L": 0.77, "H": 0.44}
	cvssUI          = map[string]float64{"N": 0.85, "R": 0.62}
	cvssImpact      = map[string]float64{"N": 0, "L": 0.22, "H": 0.56}
	cvssPRUnchanged = map[string]float64{"N": 0.85, "L": 0.62, "H": 0.27}
	cvssPRChanged   = map[string]float64{"N": 0.85, "L": 0.68, "H": 0.5}
)

// cvssVectorScore computes a CVSS v3.x base score directly from a metric
// vector string of the form "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
// following the CVSS v3.1 Specification Document's base-score formula
// (§8.1, Impact/Exploitability sub-scores combined per Scope). Grounded on
// enricher/cvss's role as the teacher's CVSS ingestion point, generalized
// since claircore's CVSS enricher reads a pre-scored NVD feed rather than
// computing a score from the vector itself: an advisory-service response
// isn't guaranteed to carry a separately-reported numeric score alongside
// its vector, only the vector string, so this derives one directly from
// the AV/AC/PR/UI/S/C/I/A metrics rather than trusting a field that may be
// absent.
//
// Returns false if vector is missing, or carries an unknown value for, any
// of the AV/AC/PR/UI/C/I/A metrics (a malformed or truncated vector); a
// missing S metric is read as Scope Unchanged. On false the caller falls
// back to vendor-severity normalization.
func cvssVectorScore(vector string) (float64, bool) {
	metrics := make(map[string]string, 8)
	for _, part := range strings.Split(vector, "/") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		metrics[k] = v
	}

	av, ok := cvssAV[metrics["AV"]]
	if !ok {
		return 0, false
	}
	ac, ok := cvssAC[metrics["AC"]]
	if !ok {
		return 0, false
	}
	ui, ok := cvssUI[metrics["UI"]]
	if !ok {
		return 0, false
	}
	c, ok := cvssImpact[metrics["C"]]
	if !ok {
		return 0, false
	}
	in, ok := cvssImpact[metrics["I"]]
	if !ok {
		return 0, false
	}
	av2, ok := cvssImpact[metrics["A"]]
	if !ok {
		return 0, false
	}

	scopeChanged := metrics["S"] == "C"
	prTable := cvssPRUnchanged
	if scopeChanged {
		prTable = cvssPRChanged
	}
	pr, ok := prTable[metrics["PR"]]
	if !ok {
		return 0, false
	}

	iss := 1 - (1-c)*(1-in)*(1-av2)
	var impact float64
	if scopeChanged {
		impact = 7.52*(iss-0.029) - 3.25*math.Pow(iss-0.02, 15)
	} else {
		impact = 6.42 * iss
	}
	if impact <= 0 {
		return 0, true
	}

	exploitability := 8.22 * av * ac * pr * ui

	if scopeChanged {
		return cvssRoundup(math.Min(1.08*(impact+exploitability), 10)), true
	}
	return cvssRoundup(math.Min(impact+exploitability, 10)), true
}

// cvssRoundup implements the CVSS v3.1 spec's Roundup(x) helper (§8.1's
// worked examples, Appendix A): round to one decimal place, always
// rounding up. The spec defines it via this integer-scaled algorithm
// rather than plain math.Ceil(x*10)/10 because IEEE 754 double
// multiplication can land a fraction like 4.02*100000 just under its true
// integer value, and Ceil would then round up to the wrong tenth.
func cvssRoundup(x float64) float64 {
	scaled := int64(math.Round(x * 100000))
	if scaled%10000 == 0 {
		return float64(scaled) / 100000
	}
	return float64(scaled/10000+1) / 10
}

// normalizeSeverity fills in Advisory.Severity from whichever of
// CVSSBaseScore, CVSSVector, or VendorSeverity is available, preferring a
// concrete CVSS score over a vendor string, per spec.md §4.4 item 3's
// stated precedence.
func normalizeSeverity(a bazbom.Advisory) bazbom.Severity {
	switch {
	case a.CVSSBaseScore > 0:
		return bazbom.NormalizeCVSS(a.CVSSBaseScore)
	case a.CVSSVector != "":
		if score, ok := cvssVectorScore(a.CVSSVector); ok {
			return bazbom.NormalizeCVSS(score)
		}
		fallthrough
	default:
		return bazbom.NormalizeVendorSeverity(a.VendorSeverity)
	}
}
