package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	id := NewRunID()
	parsed, err := ParseRunID(" " + id.String() + " ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}

	if _, err := ParseRunID(""); err == nil {
		t.Error("Expected error for empty run ID")
	}
	if _, err := ParseRunID("not-a-uuid"); err == nil {
		t.Error("Expected error for malformed run ID")
	}
}

func TestErrorClassification(t *testing.T) {
	err := NewDataEntryError("LHCb_GLW", ErrNegativeUncertainty)
	if !IsDataEntryError(err) {
		t.Errorf("expected data entry error, got %v", err)
	}
	if !errors.Is(err, ErrNegativeUncertainty) {
		t.Errorf("expected wrapped sentinel, got %v", err)
	}

	if !IsDimensionError(NewDimensionError("g", 2, 3)) {
		t.Error("expected dimension error")
	}
	if !IsMissingMeasurement(NewMissingMeasurementError("nope")) {
		t.Error("expected missing measurement error")
	}
	if IsDataEntryError(ErrDimensionMismatch) {
		t.Error("dimension mismatch is not a data entry error")
	}
}
