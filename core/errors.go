package core

import "errors"

var (
	// ErrCatalogConflict: two definitions in one load batch claim the same key.
	ErrCatalogConflict = errors.New("catalog conflict")
	// ErrInvalidDefinition: a definition has an empty name or out-of-range numbers.
	ErrInvalidDefinition = errors.New("invalid device definition")
	// ErrUnknownDevice: a key did not resolve against the catalog.
	ErrUnknownDevice = errors.New("unknown device")
	// ErrInvalidCount: a device count was zero or negative.
	ErrInvalidCount = errors.New("invalid device count")
	// ErrInvalidSpecifier: a raw "[COUNT:]NAME" token was malformed.
	ErrInvalidSpecifier = errors.New("invalid device specifier")
	// ErrEmptyEndpoint: an endpoint had no devices when range computation began.
	ErrEmptyEndpoint = errors.New("endpoint has no devices")
	// ErrInvalidBands: band fractions do not partition [0,1].
	ErrInvalidBands = errors.New("invalid distance bands")
	// ErrInvalidCurve: decay curve parameters are out of range.
	ErrInvalidCurve = errors.New("invalid decay curve")
)
