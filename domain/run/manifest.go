package run

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"flavorfit/domain/core"
)

// CodeVersion is recorded in every manifest.
const CodeVersion = "0.1.0"

// Manifest fully describes a scan. Two scans with the
// same fingerprint evaluate the same likelihood on the same grid.
type Manifest struct {
	RunID         core.RunID        `json:"run_id"`
	Mode          string            `json:"mode"`
	Normalization string            `json:"normalization"`
	RegistryHash  core.RegistryHash `json:"registry_hash"`
	Grid          Grid              `json:"grid"`
	BaseHash      core.Hash         `json:"base_hash"`
	CodeVersion   string            `json:"code_version"`
	Fingerprint   RunFingerprint    `json:"fingerprint"`
	CreatedAt     core.Timestamp    `json:"created_at"`
}

// Grid is the scanned parameter range.
type Grid struct {
	Parameter string  `json:"parameter"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Points    int     `json:"points"`
}

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	RegistryHash  core.RegistryHash `json:"registry_hash"`
	Mode          string            `json:"mode"`
	Normalization string            `json:"normalization"`
	GridHash      core.Hash         `json:"grid_hash"`
	CodeVersion   string            `json:"code_version"`
	Fingerprint   core.Hash         `json:"fingerprint"` // Hash of all above
}

// NewManifest records a scan before it starts. base is the full parameter
// vector the grid parameter is inserted into.
func NewManifest(runID core.RunID, mode, normalization string, registryHash core.RegistryHash, grid Grid, base []float64) *Manifest {
	baseHash := hashVector(base)
	gridHash := core.NewHash([]byte(fmt.Sprintf("%s|%.17g|%.17g|%d|%s",
		grid.Parameter, grid.Min, grid.Max, grid.Points, baseHash)))

	return &Manifest{
		RunID:         runID,
		Mode:          mode,
		Normalization: normalization,
		RegistryHash:  registryHash,
		Grid:          grid,
		BaseHash:      baseHash,
		CodeVersion:   CodeVersion,
		Fingerprint:   NewRunFingerprint(registryHash, mode, normalization, gridHash, CodeVersion),
		CreatedAt:     core.Now(),
	}
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(registryHash core.RegistryHash, mode, normalization string, gridHash core.Hash, codeVersion string) RunFingerprint {
	return RunFingerprint{
		RegistryHash:  registryHash,
		Mode:          mode,
		Normalization: normalization,
		GridHash:      gridHash,
		CodeVersion:   codeVersion,
		Fingerprint:   computeRunFingerprint(registryHash, mode, normalization, gridHash, codeVersion),
	}
}

// computeRunFingerprint generates deterministic hash from all determinism parameters
func computeRunFingerprint(registryHash core.RegistryHash, mode, normalization string, gridHash core.Hash, codeVersion string) core.Hash {
	data := fmt.Sprintf("registry:%s|mode:%s|norm:%s|grid:%s|code:%s",
		registryHash, mode, normalization, gridHash, codeVersion)

	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

func hashVector(v []float64) core.Hash {
	var b strings.Builder
	for _, x := range v {
		fmt.Fprintf(&b, "%.17g,", x)
	}
	return core.NewHash([]byte(b.String()))
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return fmt.Errorf("run manifest: run_id cannot be empty")
	}
	if m.Mode == "" {
		return fmt.Errorf("run manifest: mode cannot be empty")
	}
	if m.RegistryHash == "" {
		return fmt.Errorf("run manifest: registry_hash cannot be empty")
	}
	if m.Grid.Parameter == "" || m.Grid.Points < 2 {
		return fmt.Errorf("run manifest: grid is incomplete")
	}
	if m.CodeVersion == "" {
		return fmt.Errorf("run manifest: code_version cannot be empty")
	}
	return nil
}
