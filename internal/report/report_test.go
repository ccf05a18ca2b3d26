package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/signalsfoundry/commnet-calculator/core"
	"github.com/signalsfoundry/commnet-calculator/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runBuiltin(t *testing.T, from, to []core.Spec, opts ...core.RunnerOption) (*core.Result, *core.BandTable) {
	t.Helper()
	catalog, err := core.NewDeviceCatalog(core.BuiltinDevices())
	require.NoError(t, err)
	bands, err := core.NewBandTable(core.DefaultBands(), nil)
	require.NoError(t, err)
	runner, err := core.NewRunner(catalog, bands, opts...)
	require.NoError(t, err)
	res, err := runner.Run(from, to)
	require.NoError(t, err)
	return res, bands
}

func TestMetricPrefix(t *testing.T) {
	assert.Equal(t, "35.355 Mm", MetricPrefix(35355339.05932738, "m"))
	assert.Equal(t, "250 G", MetricPrefix(250e9, ""))
	assert.Equal(t, "5 k", MetricPrefix(5000, ""))
	assert.Equal(t, "0 m", MetricPrefix(0, "m"))
}

func TestFormatStrength(t *testing.T) {
	half := 0.5
	full := 1.0
	assert.Equal(t, "NA", FormatStrength(nil))
	assert.Equal(t, "50.0 %", FormatStrength(&half))
	assert.Equal(t, "100.0 %", FormatStrength(&full))
}

func TestWriteTextDefaultRun(t *testing.T) {
	res, _ := runBuiltin(t, nil, nil)
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, res))
	out := buf.String()

	for _, want := range []string{
		" From:\n Deep Space Network:\n     Power: 250 G\n     Devices:\n         DSN Lv.3\n",
		" To:\n Vessel:\n     Power: 5 k\n",
		" Max distance: 35.355 Mm",
		"|---------:|---------:|",
		"100.0 %",
		"0.0 %",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "NA")
}

func TestWriteTextCountsAndNA(t *testing.T) {
	refs, err := core.NewReferenceTable(core.DefaultReferenceDistances(), nil)
	require.NoError(t, err)
	res, _ := runBuiltin(t,
		[]core.Spec{{Count: 2, Key: "HG-55"}, {Count: 1, Key: "HG-55"}},
		[]core.Spec{{Count: 1, Key: "C16"}},
		core.WithReferenceTable(refs),
	)
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, res))
	out := buf.String()

	assert.Contains(t, out, "3x Communotron HG-55")
	assert.Contains(t, out, "Kerbin - Eeloo")
	// Eeloo is far beyond a HG-55 to C16 link.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Kerbin - Eeloo") {
			assert.Contains(t, line, "0.0 %")
		}
	}
}

func TestWriteTextZeroPowerShowsNA(t *testing.T) {
	res := &core.Result{
		From:    core.EndpointReport{Kind: core.EndpointKindVessel, Devices: []core.DeviceCount{{Name: "Dead", Count: 1}}},
		To:      core.EndpointReport{Kind: core.EndpointKindVessel, Power: 10, Devices: []core.DeviceCount{{Name: "Live", Count: 1}}},
		Signals: []core.SignalEntry{{Label: "Near"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, res))
	assert.Contains(t, buf.String(), "|       NA |       NA |")
}

func TestWriteJSON(t *testing.T) {
	res, _ := runBuiltin(t, nil, nil)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.InDelta(t, 35355339.06, decoded["max_distance"], 0.01)
	from := decoded["from"].(map[string]any)
	assert.Equal(t, core.EndpointKindDSN, from["kind"])
	assert.Len(t, decoded["signals"], 4)
}

func TestWriteDevices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDevices(&buf, []model.DeviceDefinition{
		{Name: "Command Module", Aliases: []string{"internal"}},
		{Name: "Bare"},
		{Name: "Multi", Aliases: []string{"a", "b"}},
	}))
	assert.Equal(t, "Available devices:\n    Command Module (internal)\n    Bare\n    Multi (a, b)\n", buf.String())
}

func TestWriteChart(t *testing.T) {
	refs, err := core.NewReferenceTable(core.DefaultReferenceDistances(), nil)
	require.NoError(t, err)
	res, bands := runBuiltin(t, []core.Spec{{Count: 1, Key: "DSN3"}}, []core.Spec{{Count: 1, Key: "88-88"}}, core.WithReferenceTable(refs))

	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, res, bands, 16))
	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "Signal strength by distance")
	assert.Contains(t, html, "smoothstep")
}

func TestReferencePointsMergeSharedSlot(t *testing.T) {
	strength := func(v float64) *float64 { return &v }
	res := &core.Result{
		MaxDistance: 1000,
		References: []core.SignalEntry{
			{Label: "Mun", NearDistance: 500, AtNear: strength(0.5)},
			{Label: "Minmus", NearDistance: 510, AtNear: strength(0.48)},
			{Label: "Duna", NearDistance: 2000, AtNear: strength(0)},
			{Label: "Eve", NearDistance: 100, AtNear: nil},
			{Label: "Ike", NearDistance: 0, AtNear: strength(1)},
		},
	}

	points := referencePoints(res, 11)
	require.Len(t, points, 11)
	assert.Equal(t, "Ike", points[0].Name)
	assert.Equal(t, 100.0, points[0].Value)
	assert.Equal(t, "Mun, Minmus", points[5].Name)
	assert.Equal(t, 50.0, points[5].Value)

	var named int
	for _, p := range points {
		if p.Name != "" {
			named++
			continue
		}
		assert.Equal(t, "-", p.Value)
	}
	assert.Equal(t, 2, named)
}

func TestReferencePointsEmptyWhenNoneReachable(t *testing.T) {
	res := &core.Result{
		MaxDistance: 10,
		References:  []core.SignalEntry{{Label: "Jool", NearDistance: 100}},
	}
	assert.Nil(t, referencePoints(res, 8))
}

func TestWriteChartWithoutLink(t *testing.T) {
	bands, err := core.NewBandTable(core.DefaultBands(), nil)
	require.NoError(t, err)
	err = WriteChart(&bytes.Buffer{}, &core.Result{}, bands, 0)
	assert.ErrorIs(t, err, ErrNoLink)
}
