package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/commnet-calculator/model"
)

// DeviceCatalog maps lookup keys (names and aliases, case-sensitive)
// onto device definitions.
//
// A catalog is built once per calculation: built-ins are seeded first,
// then external batches are applied in load order. Every key of a newly
// loaded definition overrides whatever that key pointed at before. A
// definition loaded under an existing name replaces the old definition
// outright, including the aliases the old one carried.
//
// The catalog is not safe for concurrent mutation; callers build it,
// then share it read-only.
type DeviceCatalog struct {
	entries []*catalogEntry
	keys    map[string]*catalogEntry
}

type catalogEntry struct {
	def  model.DeviceDefinition
	refs int // number of keys currently resolving to this entry
}

// NewDeviceCatalog returns a catalog seeded with builtins, applied as a
// single batch.
func NewDeviceCatalog(builtins []model.DeviceDefinition) (*DeviceCatalog, error) {
	c := &DeviceCatalog{keys: make(map[string]*catalogEntry)}
	if err := c.Load(builtins); err != nil {
		return nil, fmt.Errorf("seed built-in devices: %w", err)
	}
	return c, nil
}

// Resolve looks up a definition by exact name or alias.
func (c *DeviceCatalog) Resolve(key string) (model.DeviceDefinition, bool) {
	if c == nil {
		return model.DeviceDefinition{}, false
	}
	e, ok := c.keys[key]
	if !ok {
		return model.DeviceDefinition{}, false
	}
	return e.def.Clone(), true
}

// Load applies a batch of definitions in order. The batch is validated
// up front; on error the catalog is left exactly as it was.
func (c *DeviceCatalog) Load(defs []model.DeviceDefinition) error {
	batch, err := validateBatch(defs)
	if err != nil {
		return err
	}
	for _, def := range batch {
		c.apply(def)
	}
	return nil
}

// All lists every definition still reachable by at least one key.
// Order: built-ins in their seeded order, then loaded definitions in
// load order; a definition replaced under its own name moves to the
// position of its replacement.
func (c *DeviceCatalog) All() []model.DeviceDefinition {
	if c == nil {
		return nil
	}
	out := make([]model.DeviceDefinition, 0, len(c.entries))
	for _, e := range c.entries {
		if e.refs > 0 {
			out = append(out, e.def.Clone())
		}
	}
	return out
}

// Len returns the number of listed definitions.
func (c *DeviceCatalog) Len() int {
	n := 0
	if c == nil {
		return n
	}
	for _, e := range c.entries {
		if e.refs > 0 {
			n++
		}
	}
	return n
}

func (c *DeviceCatalog) apply(def model.DeviceDefinition) {
	// Same name: the old definition is retired as a whole.
	if prev, ok := c.keys[def.Name]; ok && prev.def.Name == def.Name {
		c.retire(prev)
	}

	e := &catalogEntry{def: def}
	for _, k := range def.Keys() {
		if prev, ok := c.keys[k]; ok {
			prev.refs--
		}
		c.keys[k] = e
		e.refs++
	}
	c.entries = append(c.entries, e)
	c.compact()
}

func (c *DeviceCatalog) retire(e *catalogEntry) {
	for k, cur := range c.keys {
		if cur == e {
			delete(c.keys, k)
		}
	}
	e.refs = 0
}

// compact drops entries that no key resolves to any more.
func (c *DeviceCatalog) compact() {
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.refs > 0 {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = nil
	}
	c.entries = kept
}

// validateBatch checks each definition and rejects keys claimed by two
// different definitions within the same batch. Byte-identical repeats
// are collapsed.
func validateBatch(defs []model.DeviceDefinition) ([]model.DeviceDefinition, error) {
	claimed := make(map[string]int, len(defs))
	out := make([]model.DeviceDefinition, 0, len(defs))
	for _, def := range defs {
		if err := ValidateDefinition(def); err != nil {
			return nil, err
		}
		dup := false
		for _, k := range def.Keys() {
			idx, ok := claimed[k]
			if !ok {
				continue
			}
			if !out[idx].Equal(def) {
				return nil, fmt.Errorf("%w: key %q claimed by %q and %q", ErrCatalogConflict, k, out[idx].Name, def.Name)
			}
			dup = true
		}
		if dup {
			continue
		}
		for _, k := range def.Keys() {
			claimed[k] = len(out)
		}
		out = append(out, def.Clone())
	}
	return out, nil
}

// ValidateDefinition checks the numeric ranges and the name of def.
func ValidateDefinition(def model.DeviceDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	for _, a := range def.Aliases {
		if a == "" {
			return fmt.Errorf("%w: %q has an empty alias", ErrInvalidDefinition, def.Name)
		}
	}
	if math.IsNaN(def.Power) || math.IsInf(def.Power, 0) || def.Power < 0 {
		return fmt.Errorf("%w: %q power %v must be a finite value >= 0", ErrInvalidDefinition, def.Name, def.Power)
	}
	e := def.CombinabilityExponent
	if math.IsNaN(e) || e < 0 || e > 1 {
		return fmt.Errorf("%w: %q combinability exponent %v must be in [0,1]", ErrInvalidDefinition, def.Name, e)
	}
	return nil
}
