package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/signalsfoundry/commnet-calculator/core"
)

// DefaultChartSamples is the number of points plotted when callers pass 0.
const DefaultChartSamples = 64

const (
	colorStrength  = "#3b82f6"
	colorReference = "#f472b6"
)

// ErrNoLink is returned when there is nothing to plot.
var ErrNoLink = errors.New("no link possible between endpoints")

// WriteChart renders an HTML page with signal strength against distance
// from 0 to the max distance. Reference distances inside that span are
// plotted as points on the curve.
func WriteChart(w io.Writer, res *core.Result, bands *core.BandTable, samples int) error {
	if res == nil || bands == nil {
		return errors.New("chart needs a result and a band table")
	}
	if res.MaxDistance <= 0 {
		return ErrNoLink
	}
	if samples < 2 {
		samples = DefaultChartSamples
	}

	xAxis := make([]string, samples)
	points := make([]opts.LineData, samples)
	for i := 0; i < samples; i++ {
		d := res.MaxDistance * float64(i) / float64(samples-1)
		s, _ := bands.StrengthAt(d, res.MaxDistance)
		xAxis[i] = MetricPrefix(d, "m")
		points[i] = opts.LineData{Value: round1(100 * s), Name: xAxis[i]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Signal strength",
			Width:     "960px",
			Height:    "480px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Signal strength by distance",
			Subtitle: fmt.Sprintf("max distance %s, %s curve", MetricPrefix(res.MaxDistance, "m"), bands.Curve().Name()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "distance"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "strength %", Min: 0, Max: 100}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("strength", points,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false), Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorStrength, Width: 2}),
	)

	if refs := referencePoints(res, samples); len(refs) > 0 {
		line.AddSeries("references", refs,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorReference, Width: 0}),
		)
	}

	page := components.NewPage()
	page.AddCharts(line)
	return page.Render(w)
}

// referencePoints places each reachable reference's near edge on the
// closest sample slot; other slots stay empty. References sharing a slot
// are merged into one point labelled with every name, plotted at the
// strongest of their readings.
func referencePoints(res *core.Result, samples int) []opts.LineData {
	labels := make([][]string, samples)
	values := make([]float64, samples)
	found := false
	for _, ref := range res.References {
		if ref.AtNear == nil || ref.NearDistance > res.MaxDistance {
			continue
		}
		slot := int(ref.NearDistance/res.MaxDistance*float64(samples-1) + 0.5)
		v := round1(100 * *ref.AtNear)
		if len(labels[slot]) == 0 || v > values[slot] {
			values[slot] = v
		}
		labels[slot] = append(labels[slot], ref.Label)
		found = true
	}
	if !found {
		return nil
	}
	out := make([]opts.LineData, samples)
	for i := range out {
		if len(labels[i]) == 0 {
			out[i] = opts.LineData{Value: "-"}
			continue
		}
		out[i] = opts.LineData{Value: values[i], Name: strings.Join(labels[i], ", ")}
	}
	return out
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
