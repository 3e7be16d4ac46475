// Package config loads the pipeline settings document, validates it and
// reloads it when the file changes on disk.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/barkimedes/go-deepcopy"
	"github.com/mitchellh/reflectwalk"

	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline/aos"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline/aosa"
	"github.com/Carmen-Shannon/oxy-ink/engine/pipeline/custom"
)

// PipelineKind selects the camera renderer built from a settings document.
type PipelineKind string

const (
	// PipelineInk is the Age of Sail ink pipeline.
	PipelineInk PipelineKind = "aosa"

	// PipelineSail is the single light Age of Sail pipeline.
	PipelineSail PipelineKind = "aos"

	// PipelineForward is the general forward pipeline.
	PipelineForward PipelineKind = "custom"
)

// Settings is the pipeline settings document. Every pipeline section is kept
// so switching Pipeline does not lose the others.
type Settings struct {
	Pipeline PipelineKind    `json:"pipeline"`
	Ink      aosa.Settings   `json:"aosa"`
	Sail     aos.Settings    `json:"aos"`
	Forward  custom.Settings `json:"custom"`
}

// DefaultSettings returns the ink pipeline with default sections.
func DefaultSettings() Settings {
	return Settings{
		Pipeline: PipelineInk,
		Ink:      aosa.DefaultSettings(),
		Sail:     aos.DefaultSettings(),
		Forward:  custom.DefaultSettings(),
	}
}

// Parse decodes a settings document over the defaults and validates it.
// Unknown fields are rejected.
//
// Parameters:
//   - data: the JSON document
//
// Returns:
//   - Settings: the decoded settings
//   - error: a decode or validation error
func Parse(data []byte) (Settings, error) {
	s := DefaultSettings()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports every invalid value of every pipeline section.
func (s *Settings) Validate() error {
	var errs []error
	switch s.Pipeline {
	case PipelineInk, PipelineSail, PipelineForward:
	default:
		errs = append(errs, fmt.Errorf("config: unknown pipeline %q", s.Pipeline))
	}
	if err := checkFinite(s); err != nil {
		errs = append(errs, err)
	}
	if err := s.Ink.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Sail.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Forward.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy that shares no memory with s.
func (s *Settings) Clone() Settings {
	return *deepcopy.MustAnything(s).(*Settings)
}

// StrictContracts reports whether the selected pipeline asks for strict render graph contracts.
func (s *Settings) StrictContracts() bool {
	switch s.Pipeline {
	case PipelineForward:
		return s.Forward.StrictContracts
	case PipelineSail:
		return s.Sail.StrictContracts
	}
	return s.Ink.StrictContracts
}

// finiteWalker collects the path of every NaN or infinite float.
type finiteWalker struct {
	path []string
	bad  []string
}

func (w *finiteWalker) Enter(reflectwalk.Location) error {
	return nil
}

func (w *finiteWalker) Exit(l reflectwalk.Location) error {
	if l == reflectwalk.StructField && len(w.path) > 0 {
		w.path = w.path[:len(w.path)-1]
	}
	return nil
}

func (w *finiteWalker) Struct(reflect.Value) error {
	return nil
}

func (w *finiteWalker) StructField(f reflect.StructField, _ reflect.Value) error {
	w.path = append(w.path, f.Name)
	return nil
}

func (w *finiteWalker) Primitive(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			w.bad = append(w.bad, strings.Join(w.path, "."))
		}
	}
	return nil
}

// checkFinite rejects NaN and infinite floats anywhere in s. Range checks
// compare with < and > and let NaN through.
func checkFinite(s *Settings) error {
	w := &finiteWalker{}
	if err := reflectwalk.Walk(s, w); err != nil {
		return fmt.Errorf("config: walk settings: %w", err)
	}
	if len(w.bad) > 0 {
		return fmt.Errorf("config: non finite values in %s", strings.Join(w.bad, ", "))
	}
	return nil
}
