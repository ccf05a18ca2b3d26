// Package report renders calculation results for people and programs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/signalsfoundry/commnet-calculator/core"
	"github.com/signalsfoundry/commnet-calculator/model"
)

const indent = "    "

// MetricPrefix formats v with three significant decimals and an SI prefix,
// e.g. MetricPrefix(35355339, "m") == "35.355 Mm".
func MetricPrefix(v float64, unit string) string {
	return strings.TrimSpace(humanize.SIWithDigits(v, 3, unit))
}

// FormatStrength renders a strength as a percentage, or NA when no link
// is possible.
func FormatStrength(s *float64) string {
	if s == nil {
		return "NA"
	}
	return fmt.Sprintf("%.1f %%", 100**s)
}

// WriteText writes the human-readable report: both endpoints, the max
// distance, and one table per set of sections.
func WriteText(w io.Writer, res *core.Result) error {
	tw := &textWriter{w: w}
	tw.line("")
	tw.line(" From:")
	tw.endpoint(res.From)
	tw.line(" To:")
	tw.endpoint(res.To)
	tw.line("")
	tw.line(" Max distance: %s", MetricPrefix(res.MaxDistance, "m"))
	tw.line("")

	sections := make([]section, 0, len(res.Signals))
	for _, s := range res.Signals {
		sections = append(sections, section{
			name:  fmt.Sprintf("%s (%s - %s)", s.Label, MetricPrefix(s.NearDistance, "m"), MetricPrefix(s.FarDistance, "m")),
			entry: s,
		})
	}
	tw.table(sections)

	if len(res.References) > 0 {
		refs := make([]section, 0, len(res.References))
		for _, s := range res.References {
			refs = append(refs, section{name: s.Label, entry: s})
		}
		tw.table(refs)
	}
	return tw.err
}

// WriteJSON writes res as indented JSON. Not-applicable strengths are null.
func WriteJSON(w io.Writer, res *core.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteDevices lists every device as "Name (alias, alias)".
func WriteDevices(w io.Writer, defs []model.DeviceDefinition) error {
	tw := &textWriter{w: w}
	tw.line("Available devices:")
	for _, d := range defs {
		if len(d.Aliases) == 0 {
			tw.line("%s%s", indent, d.Name)
			continue
		}
		tw.line("%s%s (%s)", indent, d.Name, strings.Join(d.Aliases, ", "))
	}
	return tw.err
}

type section struct {
	name  string
	entry core.SignalEntry
}

// textWriter remembers the first write error so callers check once.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) line(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format+"\n", args...)
}

func (t *textWriter) endpoint(ep core.EndpointReport) {
	t.line(" %s:", ep.Kind)
	t.line(" %sPower: %s", indent, MetricPrefix(ep.Power, ""))
	t.line(" %sDevices:", indent)
	for _, d := range ep.Devices {
		if d.Count == 1 {
			t.line(" %s%s%s", indent, indent, d.Name)
			continue
		}
		t.line(" %s%s%dx %s", indent, indent, d.Count, d.Name)
	}
}

func (t *textWriter) table(rows []section) {
	width := 25
	for _, r := range rows {
		if n := len(r.name); n > width {
			width = n
		}
	}
	t.line(" | %-*s | %8s | %8s |", width, center("Section", width), "@Min", "@Max")
	t.line(" |:%s|---------:|---------:|", strings.Repeat("-", width+1))
	for _, r := range rows {
		t.line(" | %-*s | %8s | %8s |", width, r.name, FormatStrength(r.entry.AtNear), FormatStrength(r.entry.AtFar))
	}
	t.line("")
}

func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
