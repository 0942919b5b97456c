package ports

import (
	"context"

	"flavorfit/domain/registry"
)

// MeasurementSourcePort provides the measurement registry at startup
type MeasurementSourcePort interface {
	LoadRegistry(ctx context.Context) (*registry.Registry, error)
}
