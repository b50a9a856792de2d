package bazbom

import "testing"

func TestDefault(t *testing.T) {
	c := Default()
	if c.MaxConcurrent != DefaultMaxConcurrent {
		t.Errorf("MaxConcurrent = %d, want %d", c.MaxConcurrent, DefaultMaxConcurrent)
	}
	if c.DisableVulnerabilities {
		t.Error("DisableVulnerabilities should default false so vulnerability resolution is on by default per spec.md §4.9")
	}
	if c.EnableReachability {
		t.Error("EnableReachability should default false per spec.md §4.9")
	}
	if c.EcosystemTimeout != DefaultEcosystemTimeout {
		t.Errorf("EcosystemTimeout = %v, want %v", c.EcosystemTimeout, DefaultEcosystemTimeout)
	}
	if c.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", c.BatchSize, DefaultBatchSize)
	}
	// Pinned against the literal from spec.md §4.9 ("batch_size ... default
	// 1000"), not just DefaultBatchSize itself, so a wrong constant can't
	// pass by construction.
	if c.BatchSize != 1000 {
		t.Errorf("BatchSize = %d, want 1000 per spec.md §4.9", c.BatchSize)
	}
}

func TestWithDefaultsFillsOnlyZeroFields(t *testing.T) {
	c := Config{MaxConcurrent: 4, BatchSize: 50}
	got := c.WithDefaults()
	if got.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent should be left untouched, got %d", got.MaxConcurrent)
	}
	if got.BatchSize != 50 {
		t.Errorf("BatchSize should be left untouched, got %d", got.BatchSize)
	}
	if got.EcosystemTimeout != DefaultEcosystemTimeout {
		t.Errorf("EcosystemTimeout = %v, want default %v", got.EcosystemTimeout, DefaultEcosystemTimeout)
	}
}

func TestWithDefaultsZeroValue(t *testing.T) {
	got := Config{}.WithDefaults()
	if got.MaxConcurrent != DefaultMaxConcurrent || got.EcosystemTimeout != DefaultEcosystemTimeout || got.BatchSize != DefaultBatchSize {
		t.Fatalf("WithDefaults() on a zero Config = %+v", got)
	}
}
