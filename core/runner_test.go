package core

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/signalsfoundry/commnet-calculator/model"
)

func newBuiltinRunner(t *testing.T, opts ...RunnerOption) *Runner {
	t.Helper()
	r, err := NewRunner(newTestCatalog(t, BuiltinDevices()...), nil, opts...)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func TestRunDefaultsBothEndpoints(t *testing.T) {
	r := newBuiltinRunner(t)
	res, err := r.Run(nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.From.Devices) != 1 || res.From.Devices[0] != (DeviceCount{Name: DefaultFromDevice, Count: 1}) {
		t.Fatalf("From.Devices = %+v, want [%s x1]", res.From.Devices, DefaultFromDevice)
	}
	if len(res.To.Devices) != 1 || res.To.Devices[0] != (DeviceCount{Name: DefaultToDevice, Count: 1}) {
		t.Fatalf("To.Devices = %+v, want [%s x1]", res.To.Devices, DefaultToDevice)
	}
	if res.From.Kind != EndpointKindDSN || res.To.Kind != EndpointKindVessel {
		t.Fatalf("kinds = %q/%q", res.From.Kind, res.To.Kind)
	}
	// sqrt(250G * 5k)
	if !approxEqual(res.MaxDistance, 35355339.05932738) {
		t.Fatalf("MaxDistance = %v, want ~35.36M", res.MaxDistance)
	}
	if len(res.Signals) != len(DefaultBands()) {
		t.Fatalf("len(Signals) = %d, want %d", len(res.Signals), len(DefaultBands()))
	}
	if res.References != nil {
		t.Fatalf("References = %+v, want nil without a reference table", res.References)
	}
}

func TestRunCustomDefaults(t *testing.T) {
	r := newBuiltinRunner(t, WithDefaults(Spec{Count: 2, Key: "HG-55"}, Spec{Count: 1, Key: "RA-2"}))
	res, err := r.Run(nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.From.Devices[0] != (DeviceCount{Name: "Communotron HG-55", Count: 2}) {
		t.Fatalf("From.Devices = %+v", res.From.Devices)
	}
	if res.To.Kind != EndpointKindRelay {
		t.Fatalf("To.Kind = %q, want %q", res.To.Kind, EndpointKindRelay)
	}
}

func TestRunScenarioPowers(t *testing.T) {
	cat := newTestCatalog(t,
		model.DeviceDefinition{Name: "Hundred", Power: 100, CombinabilityExponent: 1},
		model.DeviceDefinition{Name: "FourHundred", Power: 400, CombinabilityExponent: 1},
	)
	r, err := NewRunner(cat, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	res, err := r.Run([]Spec{{Count: 1, Key: "Hundred"}}, []Spec{{Count: 1, Key: "FourHundred"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.MaxDistance != 200 {
		t.Fatalf("MaxDistance = %v, want 200", res.MaxDistance)
	}
	if res.From.Power != 100 || res.To.Power != 400 {
		t.Fatalf("powers = %v/%v, want 100/400", res.From.Power, res.To.Power)
	}
}

func TestRunUnknownDevicesAreAllReported(t *testing.T) {
	r := newBuiltinRunner(t)
	_, err := r.Run(
		[]Spec{{Count: 1, Key: "Nope"}, {Count: 1, Key: "HG-55"}},
		[]Spec{{Count: 1, Key: "Missing"}},
	)
	if !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("Run err = %v, want ErrUnknownDevice", err)
	}
	msg := err.Error()
	for _, key := range []string{`"Nope"`, `"Missing"`} {
		if !strings.Contains(msg, key) {
			t.Fatalf("error %q does not name %s", msg, key)
		}
	}
}

func TestBuildEndpointUnknownDevice(t *testing.T) {
	r := newBuiltinRunner(t)
	_, err := r.BuildEndpoint([]Spec{{Count: 1, Key: "Nope"}}, Spec{Count: 1, Key: DefaultToDevice})
	if !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("BuildEndpoint err = %v, want ErrUnknownDevice", err)
	}
	if err.Error() != `unknown device: "Nope"` {
		t.Fatalf("err = %q", err.Error())
	}
}

func TestBuildEndpointInvalidCount(t *testing.T) {
	r := newBuiltinRunner(t)
	_, err := r.BuildEndpoint([]Spec{{Count: 0, Key: "HG-55"}}, Spec{Count: 1, Key: DefaultToDevice})
	if !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("BuildEndpoint err = %v, want ErrInvalidCount", err)
	}
}

func TestRunUnknownDefaultFails(t *testing.T) {
	r := newBuiltinRunner(t, WithDefaults(Spec{Count: 1, Key: "Gone"}, Spec{Count: 1, Key: DefaultToDevice}))
	if _, err := r.Run(nil, nil); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("Run err = %v, want ErrUnknownDevice", err)
	}
}

func TestRunZeroPowerEndpointHasNoLink(t *testing.T) {
	cat := newTestCatalog(t,
		model.DeviceDefinition{Name: "Dead", Power: 0},
		model.DeviceDefinition{Name: "Live", Power: 10, CombinabilityExponent: 1},
	)
	r, err := NewRunner(cat, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	res, err := r.Run([]Spec{{Count: 1, Key: "Dead"}}, []Spec{{Count: 1, Key: "Live"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.MaxDistance != 0 {
		t.Fatalf("MaxDistance = %v, want 0", res.MaxDistance)
	}
	for _, s := range res.Signals {
		if s.AtNear != nil || s.AtFar != nil {
			t.Fatalf("signal %q should be not applicable", s.Label)
		}
	}
}

func TestRunWithReferencesAndModifier(t *testing.T) {
	refs, err := NewReferenceTable(DefaultReferenceDistances(), nil)
	if err != nil {
		t.Fatalf("NewReferenceTable: %v", err)
	}
	r := newBuiltinRunner(t, WithReferenceTable(refs), WithRangeModel(RangeModel{Modifier: 2}))
	res, err := r.Run([]Spec{{Count: 1, Key: "DSN3"}}, []Spec{{Count: 1, Key: "88-88"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 2 * sqrt(250G * 100G)
	if !approxEqual(res.MaxDistance, 2*158113883008.41898) {
		t.Fatalf("MaxDistance = %v", res.MaxDistance)
	}
	if len(res.References) != len(DefaultReferenceDistances()) {
		t.Fatalf("len(References) = %d", len(res.References))
	}
	for _, ref := range res.References {
		if ref.AtNear == nil || *ref.AtNear <= 0 {
			t.Fatalf("reference %q should be reachable", ref.Label)
		}
	}
}

func TestParseSpecifier(t *testing.T) {
	cases := []struct {
		raw  string
		want Spec
	}{
		{"HG-55", Spec{Count: 1, Key: "HG-55"}},
		{"3:RA-100", Spec{Count: 3, Key: "RA-100"}},
		{" 2 : DSN Lv.3 ", Spec{Count: 2, Key: "DSN Lv.3"}},
		{"0:HG-5", Spec{Count: 0, Key: "HG-5"}},
	}
	for _, tc := range cases {
		got, err := ParseSpecifier(tc.raw)
		if err != nil {
			t.Fatalf("ParseSpecifier(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseSpecifier(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestParseSpecifierErrors(t *testing.T) {
	for _, raw := range []string{"", "a:b:c", "x:HG-55", "2:", "  "} {
		if _, err := ParseSpecifier(raw); !errors.Is(err, ErrInvalidSpecifier) {
			t.Fatalf("ParseSpecifier(%q) err = %v, want ErrInvalidSpecifier", raw, err)
		}
	}
}

func TestParseSpecifiersJoinsErrors(t *testing.T) {
	_, err := ParseSpecifiers([]string{"ok", "1:2:3", "z:y"})
	if !errors.Is(err, ErrInvalidSpecifier) {
		t.Fatalf("err = %v, want ErrInvalidSpecifier", err)
	}
	if !strings.Contains(err.Error(), "1:2:3") || !strings.Contains(err.Error(), "z:y") {
		t.Fatalf("err %q does not name both bad tokens", err.Error())
	}
}

func TestRunHugePowersStayFinite(t *testing.T) {
	huge := model.DeviceDefinition{Name: "Huge", Power: 1e308, CombinabilityExponent: 1}
	r, err := NewRunner(newTestCatalog(t, append(BuiltinDevices(), huge)...), nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	res, err := r.Run([]Spec{{Count: 2, Key: "Huge"}}, []Spec{{Count: 2, Key: "Huge"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.From.Power != math.MaxFloat64 {
		t.Fatalf("From.Power = %v, want saturated at MaxFloat64", res.From.Power)
	}
	if math.IsInf(res.MaxDistance, 0) || res.MaxDistance <= 0 {
		t.Fatalf("MaxDistance = %v, want finite and positive", res.MaxDistance)
	}
	if *res.Signals[0].AtNear != 1 {
		t.Fatalf("strength at distance 0 = %v, want 1", *res.Signals[0].AtNear)
	}
	if _, err := json.Marshal(res); err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
}
