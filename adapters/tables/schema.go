// Package tables reads published measurement tables (YAML, Excel or CSV)
// and turns them into a measurement registry.
package tables

import (
	"fmt"
	"sort"

	"flavorfit/domain/core"
	"flavorfit/domain/measurement"
	"flavorfit/domain/registry"
)

// Document is the format-independent content of a measurement table.
type Document struct {
	Entries []EntryDoc `yaml:"entries"`
}

// Uncertainties holds one magnitude per slot; zero means the slot does not apply.
type Uncertainties struct {
	Stat     float64 `yaml:"stat,omitempty"`
	Syst     float64 `yaml:"syst,omitempty"`
	Model    float64 `yaml:"model,omitempty"`
	External float64 `yaml:"external,omitempty"`
}

// slots returns the magnitudes in slot order, trailing zero slots dropped.
func (u Uncertainties) slots() []float64 {
	all := []float64{u.Stat, u.Syst, u.Model, u.External}
	n := len(all)
	for n > 0 && all[n-1] == 0 {
		n--
	}
	return all[:n]
}

// EntryDoc is a scalar measurement when Observables is empty, a
// correlated group otherwise.
type EntryDoc struct {
	Name          string   `yaml:"name"`
	Reference     string   `yaml:"reference,omitempty"`
	Value         *float64 `yaml:"value,omitempty"`
	Uncertainties `yaml:",inline"`

	Observables  []ObservableDoc        `yaml:"observables,omitempty"`
	Correlations map[string][][]float64 `yaml:"correlations,omitempty"`
}

// ObservableDoc is one member of a group.
type ObservableDoc struct {
	Label         string  `yaml:"label"`
	Value         float64 `yaml:"value"`
	Uncertainties `yaml:",inline"`
}

// Build validates the document and registers every entry in order. The
// first data-entry defect aborts the build with an error naming the entry.
func Build(doc Document) (*registry.Registry, error) {
	b := registry.NewBuilder()
	for i, e := range doc.Entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", core.ErrDataEntry, i)
		}
		if len(e.Observables) == 0 {
			m, err := buildScalar(e)
			if err != nil {
				return nil, core.NewDataEntryError(e.Name, err)
			}
			if err := b.AddMeasurement(e.Name, m); err != nil {
				return nil, err
			}
			continue
		}

		g, err := buildGroup(e)
		if err != nil {
			return nil, err
		}
		if err := b.AddGroup(e.Name, g); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func buildScalar(e EntryDoc) (measurement.Measurement, error) {
	if e.Value == nil {
		return measurement.Measurement{}, fmt.Errorf("%w: no value", core.ErrDataEntry)
	}
	if len(e.Correlations) > 0 {
		return measurement.Measurement{}, fmt.Errorf("%w: correlations on a scalar entry", core.ErrDataEntry)
	}
	return measurement.New(*e.Value, e.Uncertainties.slots()...)
}

func buildGroup(e EntryDoc) (*measurement.Group, error) {
	if e.Value != nil {
		return nil, core.NewDataEntryError(e.Name, fmt.Errorf("%w: both value and observables given", core.ErrDataEntry))
	}
	if e.Uncertainties != (Uncertainties{}) {
		return nil, core.NewDataEntryError(e.Name, fmt.Errorf("%w: uncertainties belong to the observables of a group", core.ErrDataEntry))
	}

	ms := make([]measurement.Measurement, len(e.Observables))
	for i, o := range e.Observables {
		m, err := measurement.New(o.Value, o.Uncertainties.slots()...)
		if err != nil {
			return nil, core.NewDataEntryError(fmt.Sprintf("%s[%d] %s", e.Name, i, o.Label), err)
		}
		ms[i] = m
	}

	slotNames := make([]string, 0, len(e.Correlations))
	for name := range e.Correlations {
		slotNames = append(slotNames, name)
	}
	sort.Strings(slotNames)

	corrs := make([]measurement.SlotCorrelation, 0, len(slotNames))
	for _, name := range slotNames {
		slot, err := measurement.ParseSlot(name)
		if err != nil {
			return nil, core.NewDataEntryError(e.Name, err)
		}
		rho, err := measurement.NewCorrelation(e.Correlations[name])
		if err != nil {
			return nil, core.NewDataEntryError(e.Name, fmt.Errorf("%s: %w", slot, err))
		}
		corrs = append(corrs, measurement.SlotCorrelation{Slot: slot, Correlation: rho})
	}

	return measurement.NewGroup(e.Name, ms, corrs)
}
