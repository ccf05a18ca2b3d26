// Package devicefile reads external device-definition documents.
//
// A document is YAML (or JSON, which YAML accepts) of the form:
//
//	devices:
//	  - name: Communotron 88-88
//	    aliases: [88-88]
//	    power: 100G
//	    combinability_exponent: 0.75
//	    class: direct
//
// Power takes a plain number or an SI-prefixed string ("500k", "2G").
package devicefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/signalsfoundry/commnet-calculator/core"
	"github.com/signalsfoundry/commnet-calculator/model"
	"gopkg.in/yaml.v3"
)

// DefaultCombinabilityExponent applies when a document omits the exponent.
const DefaultCombinabilityExponent = 0.75

// Document is the top-level shape of a device file.
type Document struct {
	Devices []Entry `yaml:"devices"`
}

// Entry is one device as written in a document.
type Entry struct {
	Name                  string   `yaml:"name"`
	Aliases               []string `yaml:"aliases"`
	Power                 Power    `yaml:"power"`
	CombinabilityExponent *float64 `yaml:"combinability_exponent"`
	Class                 string   `yaml:"class"`
}

// Power is a power rating that decodes from a number or an SI string.
type Power float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Power) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: power must be a scalar", node.Line)
	}
	v, err := ParsePower(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*p = Power(v)
	return nil
}

// ParsePower accepts "5000", "5e3", "5k", "2.5 G" and similar.
func ParsePower(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errors.New("power is empty")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	v, unit, err := humanize.ParseSI(s)
	if err != nil {
		return 0, fmt.Errorf("power %q: %w", raw, err)
	}
	if unit != "" {
		return 0, fmt.Errorf("power %q has unexpected suffix %q", raw, unit)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("power %q is not finite", raw)
	}
	return v, nil
}

// Batch is the set of definitions read from one source, loaded into a
// catalog as a unit.
type Batch struct {
	Source  string                   `json:"source"`
	Devices []model.DeviceDefinition `json:"devices"`
}

// Decode reads one document. source names it in error messages. Schema
// and range violations wrap core.ErrInvalidDefinition.
func Decode(r io.Reader, source string) (Batch, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Batch{}, fmt.Errorf("read %s: %w", source, err)
	}

	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return Batch{}, fmt.Errorf("%w: parse %s: %v", core.ErrInvalidDefinition, source, err)
	}
	if err := validateSchema(generic); err != nil {
		return Batch{}, fmt.Errorf("%w: %s: %v", core.ErrInvalidDefinition, source, err)
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Batch{}, fmt.Errorf("%w: decode %s: %v", core.ErrInvalidDefinition, source, err)
	}

	batch := Batch{Source: source, Devices: make([]model.DeviceDefinition, 0, len(doc.Devices))}
	var errs []error
	for _, e := range doc.Devices {
		def := e.Definition()
		if err := core.ValidateDefinition(def); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", source, err))
			continue
		}
		batch.Devices = append(batch.Devices, def)
	}
	if len(errs) > 0 {
		return Batch{}, errors.Join(errs...)
	}
	return batch, nil
}

// Definition converts a document entry into a model definition.
func (e Entry) Definition() model.DeviceDefinition {
	exp := DefaultCombinabilityExponent
	if e.CombinabilityExponent != nil {
		exp = *e.CombinabilityExponent
	}
	var aliases []string
	for _, a := range e.Aliases {
		aliases = append(aliases, strings.TrimSpace(a))
	}
	return model.DeviceDefinition{
		Name:                  strings.TrimSpace(e.Name),
		Aliases:               aliases,
		Power:                 float64(e.Power),
		CombinabilityExponent: exp,
		Class:                 model.ParseDeviceClass(e.Class),
	}
}

// LoadFile reads and decodes the document at path.
func LoadFile(path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, fmt.Errorf("open device file: %w", err)
	}
	defer f.Close()
	return Decode(f, path)
}

// LoadFiles reads every path in order, one batch per file. All failures
// are reported together.
func LoadFiles(paths []string) ([]Batch, error) {
	batches := make([]Batch, 0, len(paths))
	var errs []error
	for _, p := range paths {
		b, err := LoadFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		batches = append(batches, b)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return batches, nil
}
