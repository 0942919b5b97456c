// Package data embeds the default measurement set.
package data

import _ "embed"

// Measurements is the YAML document loaded when no data file is configured.
//
//go:embed measurements.yaml
var Measurements []byte
