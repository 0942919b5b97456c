package run

import (
	"testing"

	"flavorfit/domain/core"
)

func testGrid() Grid {
	return Grid{Parameter: "g", Min: 0.5, Max: 2.0, Points: 101}
}

func TestRunFingerprint_Deterministic(t *testing.T) {
	// Same inputs produce identical fingerprints
	base := []float64{1.15, 0.1, 2.2}
	m1 := NewManifest(core.NewRunID(), "gamma", "unnormalized", core.RegistryHash("reg"), testGrid(), base)
	m2 := NewManifest(core.NewRunID(), "gamma", "unnormalized", core.RegistryHash("reg"), testGrid(), base)

	if m1.Fingerprint.Fingerprint != m2.Fingerprint.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", m1.Fingerprint.Fingerprint, m2.Fingerprint.Fingerprint)
	}
	if m1.RunID == m2.RunID {
		t.Errorf("RunIDs should differ between runs")
	}
	if m1.BaseHash != m2.BaseHash {
		t.Errorf("BaseHash mismatch: %s vs %s", m1.BaseHash, m2.BaseHash)
	}
	if err := m1.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	base := []float64{1.15, 0.1, 2.2}
	ref := NewManifest(core.NewRunID(), "gamma", "unnormalized", core.RegistryHash("reg"), testGrid(), base).Fingerprint.Fingerprint

	wider := testGrid()
	wider.Max = 2.5

	testCases := []struct {
		name string
		m    *Manifest
	}{
		{"mode", NewManifest(core.NewRunID(), "combined", "unnormalized", core.RegistryHash("reg"), testGrid(), base)},
		{"normalization", NewManifest(core.NewRunID(), "gamma", "normalized", core.RegistryHash("reg"), testGrid(), base)},
		{"registry", NewManifest(core.NewRunID(), "gamma", "unnormalized", core.RegistryHash("other"), testGrid(), base)},
		{"grid", NewManifest(core.NewRunID(), "gamma", "unnormalized", core.RegistryHash("reg"), wider, base)},
		{"base", NewManifest(core.NewRunID(), "gamma", "unnormalized", core.RegistryHash("reg"), testGrid(), []float64{1.16, 0.1, 2.2})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.m.Fingerprint.Fingerprint == ref {
				t.Errorf("Changing %s should change the fingerprint", tc.name)
			}
		})
	}
}

func TestManifest_Validate(t *testing.T) {
	m := NewManifest(core.NewRunID(), "gamma", "unnormalized", core.RegistryHash("reg"), testGrid(), nil)
	m.RegistryHash = ""
	if err := m.Validate(); err == nil {
		t.Error("Expected error for empty registry hash")
	}

	m = NewManifest("", "gamma", "unnormalized", core.RegistryHash("reg"), testGrid(), nil)
	if err := m.Validate(); err == nil {
		t.Error("Expected error for empty run id")
	}

	m = NewManifest(core.NewRunID(), "gamma", "unnormalized", core.RegistryHash("reg"), Grid{Parameter: "g", Points: 1}, nil)
	if err := m.Validate(); err == nil {
		t.Error("Expected error for incomplete grid")
	}
}
