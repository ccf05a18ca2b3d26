package model

import "strings"

// DeviceClass indicates what role a device plays in a link. It only
// affects how an endpoint describes itself, never the power math.
type DeviceClass int

const (
	DeviceClassDirect DeviceClass = iota // vessel-mounted direct antenna
	DeviceClassRelay                     // relay-capable antenna
	DeviceClassDSN                       // ground tracking station
)

// String returns the lower-case name used in device documents.
func (c DeviceClass) String() string {
	switch c {
	case DeviceClassRelay:
		return "relay"
	case DeviceClassDSN:
		return "dsn"
	default:
		return "direct"
	}
}

// ParseDeviceClass maps a document class string onto a DeviceClass.
// Unknown or empty values fall back to DeviceClassDirect.
func ParseDeviceClass(s string) DeviceClass {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "relay":
		return DeviceClassRelay
	case "dsn":
		return DeviceClassDSN
	default:
		return DeviceClassDirect
	}
}

// MarshalText encodes the class by name so JSON documents read "relay"
// rather than 1.
func (c DeviceClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (c *DeviceClass) UnmarshalText(b []byte) error {
	*c = ParseDeviceClass(string(b))
	return nil
}

// DeviceDefinition describes one antenna-like device. Definitions are
// treated as immutable once they are handed to a catalog.
type DeviceDefinition struct {
	// Name is the primary lookup key; case-sensitive.
	Name string `json:"name"`
	// Aliases are alternate lookup keys.
	Aliases []string `json:"aliases,omitempty"`
	// Power is the standalone power rating. Must be >= 0.
	Power float64 `json:"power"`
	// CombinabilityExponent in [0,1] controls how much this device adds
	// when a stronger device is present on the same endpoint.
	CombinabilityExponent float64 `json:"combinability_exponent"`
	// Class is descriptive metadata.
	Class DeviceClass `json:"class"`
}

// Keys returns the name followed by every distinct alias.
func (d DeviceDefinition) Keys() []string {
	keys := make([]string, 0, 1+len(d.Aliases))
	keys = append(keys, d.Name)
	for _, a := range d.Aliases {
		dup := false
		for _, k := range keys {
			if k == a {
				dup = true
				break
			}
		}
		if !dup {
			keys = append(keys, a)
		}
	}
	return keys
}

// Equal reports whether two definitions carry the same content.
func (d DeviceDefinition) Equal(other DeviceDefinition) bool {
	if d.Name != other.Name ||
		d.Power != other.Power ||
		d.CombinabilityExponent != other.CombinabilityExponent ||
		d.Class != other.Class ||
		len(d.Aliases) != len(other.Aliases) {
		return false
	}
	for i := range d.Aliases {
		if d.Aliases[i] != other.Aliases[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no slices with d.
func (d DeviceDefinition) Clone() DeviceDefinition {
	out := d
	if d.Aliases != nil {
		out.Aliases = append([]string(nil), d.Aliases...)
	}
	return out
}
