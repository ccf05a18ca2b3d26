package core

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/commnet-calculator/model"
)

const floatTol = 1e-9

func approxEqual(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= floatTol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

var (
	basic   = model.DeviceDefinition{Name: "Basic", Power: 5, CombinabilityExponent: 1}
	big     = model.DeviceDefinition{Name: "Big", Power: 100, CombinabilityExponent: 0.75}
	solo    = model.DeviceDefinition{Name: "Solo", Power: 20, CombinabilityExponent: 0}
	dead    = model.DeviceDefinition{Name: "Dead", Power: 0, CombinabilityExponent: 0}
	station = model.DeviceDefinition{Name: "Station", Power: 1000, CombinabilityExponent: 0, Class: model.DeviceClassDSN}
	relay   = model.DeviceDefinition{Name: "Relay", Power: 50, CombinabilityExponent: 0.75, Class: model.DeviceClassRelay}
)

func mustAdd(t *testing.T, ep *Endpoint, d model.DeviceDefinition, n int) {
	t.Helper()
	if err := ep.Add(d, n); err != nil {
		t.Fatalf("Add(%s, %d): %v", d.Name, n, err)
	}
}

func TestCombinedPowerEmptyIsZero(t *testing.T) {
	if got := NewEndpoint().CombinedPower(); got != 0 {
		t.Fatalf("CombinedPower() = %v, want 0", got)
	}
}

func TestCombinedPowerThreeBasic(t *testing.T) {
	ep := NewEndpoint()
	mustAdd(t, ep, basic, 3)
	// 5 * (1 + (5/5)^1 + (5/5)^1)
	if got := ep.CombinedPower(); !approxEqual(got, 15) {
		t.Fatalf("CombinedPower() = %v, want 15", got)
	}
}

func TestCombinedPowerSingleContributionIgnoresExponent(t *testing.T) {
	for _, exp := range []float64{0, 0.25, 0.75, 1} {
		ep := NewEndpoint()
		mustAdd(t, ep, model.DeviceDefinition{Name: "D", Power: 42, CombinabilityExponent: exp}, 1)
		if got := ep.CombinedPower(); !approxEqual(got, 42) {
			t.Fatalf("exp %v: CombinedPower() = %v, want 42", exp, got)
		}
	}
}

func TestCombinedPowerMixedDevices(t *testing.T) {
	ep := NewEndpoint()
	mustAdd(t, ep, big, 1)
	mustAdd(t, ep, basic, 2)
	// 100 * (1 + 2*(5/100)^1)
	if got, want := ep.CombinedPower(), 100*(1+2*0.05); !approxEqual(got, want) {
		t.Fatalf("CombinedPower() = %v, want %v", got, want)
	}
}

func TestCombinedPowerNonCombinableWeakerAddsNothing(t *testing.T) {
	ep := NewEndpoint()
	mustAdd(t, ep, big, 1)
	mustAdd(t, ep, solo, 4)
	if got := ep.CombinedPower(); !approxEqual(got, 100) {
		t.Fatalf("CombinedPower() = %v, want 100", got)
	}
}

func TestCombinedPowerNonCombinableAsMaximumSuppliesPower(t *testing.T) {
	ep := NewEndpoint()
	mustAdd(t, ep, solo, 1)
	mustAdd(t, ep, basic, 1)
	// Solo anchors: 20 * (1 + (5/20)^1)
	if got := ep.CombinedPower(); !approxEqual(got, 25) {
		t.Fatalf("CombinedPower() = %v, want 25", got)
	}
}

func TestCombinedPowerTiedNonCombinableCountsOnce(t *testing.T) {
	ep := NewEndpoint()
	mustAdd(t, ep, solo, 2)
	// The second instance ties P_max: (20/20)^0 = 1.
	if got := ep.CombinedPower(); !approxEqual(got, 40) {
		t.Fatalf("CombinedPower() = %v, want 40", got)
	}
}

func TestCombinedPowerAllZero(t *testing.T) {
	ep := NewEndpoint()
	mustAdd(t, ep, dead, 3)
	if got := ep.CombinedPower(); got != 0 {
		t.Fatalf("CombinedPower() = %v, want 0", got)
	}
}

func TestCombinedPowerZeroPowerDeviceAddsNothing(t *testing.T) {
	ep := NewEndpoint()
	mustAdd(t, ep, basic, 1)
	mustAdd(t, ep, dead, 5)
	if got := ep.CombinedPower(); !approxEqual(got, 5) {
		t.Fatalf("CombinedPower() = %v, want 5", got)
	}
}

func TestCombinedPowerOrderInvariant(t *testing.T) {
	orders := [][]model.DeviceDefinition{
		{big, basic, solo, relay},
		{relay, solo, basic, big},
		{solo, big, relay, basic},
	}
	// Each device keeps the same count in every ordering.
	counts := map[string]int{"Big": 1, "Basic": 3, "Solo": 2, "Relay": 4}
	var first float64
	for i, order := range orders {
		ep := NewEndpoint()
		for _, d := range order {
			mustAdd(t, ep, d, counts[d.Name])
		}
		got := ep.CombinedPower()
		if i == 0 {
			first = got
			continue
		}
		if !approxEqual(got, first) {
			t.Fatalf("order %d: CombinedPower() = %v, want %v", i, got, first)
		}
	}
}

func TestCombinedPowerRepeatedEntriesMatchSummedCount(t *testing.T) {
	split := NewEndpoint()
	mustAdd(t, split, relay, 2)
	mustAdd(t, split, big, 1)
	mustAdd(t, split, relay, 3)

	merged := NewEndpoint()
	mustAdd(t, merged, big, 1)
	mustAdd(t, merged, relay, 5)

	if a, b := split.CombinedPower(), merged.CombinedPower(); !approxEqual(a, b) {
		t.Fatalf("split = %v, merged = %v", a, b)
	}
}

func TestCombinedPowerMonotonicInCount(t *testing.T) {
	for _, d := range []model.DeviceDefinition{basic, big, solo, relay, dead} {
		prev := -1.0
		for n := 1; n <= 8; n++ {
			ep := NewEndpoint()
			mustAdd(t, ep, big, 1)
			mustAdd(t, ep, d, n)
			got := ep.CombinedPower()
			if got < prev {
				t.Fatalf("%s: count %d power %v < previous %v", d.Name, n, got, prev)
			}
			prev = got
		}
	}
}

func TestCombinedPowerMonotonicInPower(t *testing.T) {
	prev := -1.0
	for p := 0.0; p <= 300; p += 7.5 {
		ep := NewEndpoint()
		mustAdd(t, ep, big, 2)
		mustAdd(t, ep, model.DeviceDefinition{Name: "V", Power: p, CombinabilityExponent: 0.5}, 2)
		got := ep.CombinedPower()
		if got < prev {
			t.Fatalf("power %v: combined %v < previous %v", p, got, prev)
		}
		prev = got
	}
}

func TestAddRejectsNonPositiveCount(t *testing.T) {
	ep := NewEndpoint()
	for _, n := range []int{0, -1} {
		if err := ep.Add(basic, n); !errors.Is(err, ErrInvalidCount) {
			t.Fatalf("Add(count=%d) err = %v, want ErrInvalidCount", n, err)
		}
	}
	if !ep.IsEmpty() {
		t.Fatalf("rejected adds must not modify the endpoint")
	}
}

func TestEndpointCountsGroupsByName(t *testing.T) {
	ep := NewEndpoint()
	mustAdd(t, ep, relay, 2)
	mustAdd(t, ep, basic, 1)
	mustAdd(t, ep, relay, 3)

	counts := ep.Counts()
	if len(counts) != 2 {
		t.Fatalf("len(Counts()) = %d, want 2", len(counts))
	}
	if counts[0].Device.Name != "Relay" || counts[0].Count != 5 {
		t.Fatalf("Counts()[0] = %s x%d, want Relay x5", counts[0].Device.Name, counts[0].Count)
	}
	if counts[1].Device.Name != "Basic" || counts[1].Count != 1 {
		t.Fatalf("Counts()[1] = %s x%d, want Basic x1", counts[1].Device.Name, counts[1].Count)
	}
	if n := len(ep.Contributions()); n != 3 {
		t.Fatalf("len(Contributions()) = %d, want 3", n)
	}
}

func TestEndpointKind(t *testing.T) {
	cases := []struct {
		devices []model.DeviceDefinition
		want    string
	}{
		{[]model.DeviceDefinition{basic}, EndpointKindVessel},
		{[]model.DeviceDefinition{basic, relay}, EndpointKindRelay},
		{[]model.DeviceDefinition{relay, station}, EndpointKindDSN},
	}
	for _, tc := range cases {
		ep := NewEndpoint()
		for _, d := range tc.devices {
			mustAdd(t, ep, d, 1)
		}
		if got := ep.Kind(); got != tc.want {
			t.Fatalf("Kind() = %q, want %q", got, tc.want)
		}
	}
}
