// Package registry binds measurement names to published results. A
// Registry is assembled once through a Builder and is read-only afterwards,
// so it can be shared freely between goroutines.
package registry

import (
	"fmt"
	"math"
	"strings"

	"flavorfit/domain/core"
	"flavorfit/domain/measurement"
)

// Kind tells which form an entry takes.
type Kind int

const (
	KindMeasurement Kind = iota
	KindGroup
)

func (k Kind) String() string {
	if k == KindGroup {
		return "group"
	}
	return "measurement"
}

// Entry is one registered result, either a scalar measurement or a
// correlated group. Exactly one of the two is set.
type Entry struct {
	name   string
	scalar measurement.Measurement
	group  *measurement.Group
}

// Name returns the registered name.
func (e Entry) Name() string { return e.name }

// Kind reports whether the entry is a scalar or a group.
func (e Entry) Kind() Kind {
	if e.group != nil {
		return KindGroup
	}
	return KindMeasurement
}

// Dim returns the length of the prediction vector the entry scores.
func (e Entry) Dim() int {
	if e.group != nil {
		return e.group.Dim()
	}
	return 1
}

// Measurement returns the scalar form; ok is false for groups.
func (e Entry) Measurement() (m measurement.Measurement, ok bool) {
	return e.scalar, e.group == nil
}

// Group returns the correlated form; ok is false for scalars.
func (e Entry) Group() (g *measurement.Group, ok bool) {
	return e.group, e.group != nil
}

// Centrals returns the published central values.
func (e Entry) Centrals() []float64 {
	if e.group != nil {
		return e.group.Centrals()
	}
	return []float64{e.scalar.Value()}
}

// Sigmas returns the total uncertainty of every component, the square
// root of the covariance diagonal for groups.
func (e Entry) Sigmas() []float64 {
	if e.group == nil {
		return []float64{e.scalar.Sigma()}
	}
	cov := e.group.Covariance()
	out := make([]float64, e.group.Dim())
	for i := range out {
		out[i] = math.Sqrt(cov.At(i, i))
	}
	return out
}

// LogWeight scores a prediction vector of length Dim(). It panics with an
// error wrapping core.ErrDimensionMismatch on a length mismatch.
func (e Entry) LogWeight(predicted []float64) float64 {
	if e.group != nil {
		return e.group.LogWeight(predicted)
	}
	if len(predicted) != 1 {
		panic(core.NewDimensionError(e.name, 1, len(predicted)))
	}
	return e.scalar.LogWeight(predicted[0])
}

// LogNorm returns the Gaussian normalisation constant of the entry.
func (e Entry) LogNorm() float64 {
	if e.group != nil {
		return e.group.LogNorm()
	}
	return e.scalar.LogNorm()
}

// Builder accumulates entries in registration order.
type Builder struct {
	entries []Entry
	index   map[string]int
	err     error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// AddMeasurement registers a scalar measurement.
func (b *Builder) AddMeasurement(name string, m measurement.Measurement) error {
	return b.add(Entry{name: name, scalar: m})
}

// AddGroup registers a correlated group.
func (b *Builder) AddGroup(name string, g *measurement.Group) error {
	if g == nil {
		return b.fail(core.NewDataEntryError(name, core.ErrEmptyGroup))
	}
	return b.add(Entry{name: name, group: g})
}

func (b *Builder) add(e Entry) error {
	name := strings.TrimSpace(e.name)
	if name == "" {
		return b.fail(fmt.Errorf("%w: empty measurement name", core.ErrDataEntry))
	}
	if _, exists := b.index[name]; exists {
		return b.fail(core.NewDataEntryError(name, core.ErrDuplicateName))
	}
	e.name = name
	b.index[name] = len(b.entries)
	b.entries = append(b.entries, e)
	return nil
}

// fail records the first error so that Build reports it even when the
// caller ignored the return value of an Add call.
func (b *Builder) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

// Build freezes the builder's content into a Registry. The builder must
// not be used afterwards.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := &Registry{
		entries: b.entries,
		index:   b.index,
	}
	b.entries, b.index = nil, nil
	return r, nil
}

// Registry is an immutable name → entry table.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, error) {
	i, ok := r.index[name]
	if !ok {
		return Entry{}, core.NewMissingMeasurementError(name)
	}
	return r.entries[i], nil
}

// MustLookup is Lookup for names that are known to be registered.
func (r *Registry) MustLookup(name string) Entry {
	e, err := r.Lookup(name)
	if err != nil {
		panic(err)
	}
	return e
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Names returns entry names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Entries returns a copy of all entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Fingerprint hashes every name with its central values and uncertainty
// content, so two runs can tell whether they scored the same data.
func (r *Registry) Fingerprint() core.RegistryHash {
	names := r.Names()
	values := make([][]float64, len(r.entries))
	for i, e := range r.entries {
		v := e.Centrals()
		if g, ok := e.Group(); ok {
			v = append(v, g.LogDet())
		} else {
			v = append(v, e.scalar.Uncertainties()...)
		}
		values[i] = v
	}
	return core.ComputeRegistryHash(names, values)
}
