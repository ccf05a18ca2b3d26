package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Spec asks for Count copies of the device resolved by Key.
type Spec struct {
	Count int    `json:"count"`
	Key   string `json:"key"`
}

func (s Spec) String() string {
	if s.Count == 1 {
		return s.Key
	}
	return fmt.Sprintf("%d:%s", s.Count, s.Key)
}

// ParseSpecifier parses "[<COUNT>:]<NAME>". The count defaults to 1.
// A count that parses but is not positive is passed through so that
// Endpoint.Add reports it as ErrInvalidCount.
func ParseSpecifier(raw string) (Spec, error) {
	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 1:
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return Spec{}, fmt.Errorf("%w: %q has no device name", ErrInvalidSpecifier, raw)
		}
		return Spec{Count: 1, Key: key}, nil
	case 2:
		n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %q count is not an integer", ErrInvalidSpecifier, raw)
		}
		key := strings.TrimSpace(parts[1])
		if key == "" {
			return Spec{}, fmt.Errorf("%w: %q has no device name", ErrInvalidSpecifier, raw)
		}
		return Spec{Count: n, Key: key}, nil
	default:
		return Spec{}, fmt.Errorf("%w: should be [<NUMBER_OF_DEVICES>:]<DEVICE_NAME>, got %q", ErrInvalidSpecifier, raw)
	}
}

// ParseSpecifiers parses every raw token, joining all failures.
func ParseSpecifiers(raw []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(raw))
	var errs []error
	for _, r := range raw {
		s, err := ParseSpecifier(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		specs = append(specs, s)
	}
	if len(errs) > 0 {
		return nil, joinErrors(errs)
	}
	return specs, nil
}
