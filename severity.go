package bazbom

import (
	"database/sql/driver"
	"fmt"
)

// Severity is a normalised, ordinal vulnerability severity scale, in the
// same spirit as claircore.Severity: a total order that every ecosystem's
// native severity representation maps onto so findings across ecosystems
// can be compared and sorted.
type Severity uint

const (
	SeverityUnknown Severity = iota
	SeverityInformational
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityName = [...]string{
	SeverityUnknown:       "unknown",
	SeverityInformational: "informational",
	SeverityLow:           "low",
	SeverityMedium:        "medium",
	SeverityHigh:          "high",
	SeverityCritical:      "critical",
}

// String implements fmt.Stringer.
func (s Severity) String() string {
	if int(s) >= len(severityName) {
		return "unknown"
	}
	return severityName[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	str := string(b)
	for i, n := range severityName {
		if n == str {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("bazbom: unknown severity %q", str)
}

// Value implements driver.Valuer. bazbom has no persistent store of its
// own, but EcosystemScanResult values are frequently handed to a caller's
// own storage layer, so Severity round-trips the same way claircore.Severity
// does.
func (s Severity) Value() (driver.Value, error) { return s.String(), nil }

// Scan implements sql.Scanner, for the same reason Value implements
// driver.Valuer.
func (s *Severity) Scan(v any) error {
	switch t := v.(type) {
	case []byte:
		return s.UnmarshalText(t)
	case string:
		return s.UnmarshalText([]byte(t))
	default:
		return fmt.Errorf("bazbom: unable to scan Severity from type %T", v)
	}
}

// NormalizeCVSS maps a CVSS v3 base score onto the ordinal Severity scale,
// per spec.md §4.4 item 3:
//
//	0        -> informational
//	0.1–3.9  -> low
//	4.0–6.9  -> medium
//	7.0–8.9  -> high
//	9.0–10.0 -> critical
func NormalizeCVSS(baseScore float64) Severity {
	switch {
	case baseScore <= 0:
		return SeverityInformational
	case baseScore < 4.0:
		return SeverityLow
	case baseScore < 7.0:
		return SeverityMedium
	case baseScore < 9.0:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// vendorSeverity is a fixed lookup for vendor-native severity strings that
// don't carry a CVSS score, following the pattern (not the literal table)
// of claircore's per-ecosystem normalizeseverity.go adapters (aws, crda,
// oracle, photon, rhel, ubuntu).
var vendorSeverity = map[string]Severity{
	"none":          SeverityInformational,
	"informational": SeverityInformational,
	"negligible":    SeverityLow,
	"low":           SeverityLow,
	"moderate":      SeverityMedium,
	"medium":        SeverityMedium,
	"important":     SeverityHigh,
	"high":          SeverityHigh,
	"critical":      SeverityCritical,
}

// NormalizeVendorSeverity maps a vendor severity string onto the ordinal
// scale via the fixed lookup table in spec.md §4.4 item 3. Unknown values
// degrade to medium, per spec.
func NormalizeVendorSeverity(vendor string) Severity {
	if s, ok := vendorSeverity[vendor]; ok {
		return s
	}
	return SeverityMedium
}
