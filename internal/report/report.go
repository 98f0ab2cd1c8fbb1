// Package report formats simulation summaries and sweep tables for the
// terminal.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/tankdrain/internal/analysis"
	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/physics"
	"github.com/san-kum/tankdrain/internal/sweep"
)

func StopStyle(r dynamo.StopReason) lipgloss.Style {
	switch r {
	case dynamo.FlowStalled, dynamo.BottomReached:
		return StatusOK
	case dynamo.TimeLimitReached:
		return StatusWarn
	default:
		return StatusBad
	}
}

func line(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value)
}

// Summary renders one run: scenario parameters, stop reason and the derived
// quantities.
func Summary(name string, params map[string]float64, s analysis.Summary) string {
	var b strings.Builder
	b.WriteString(Title.Render(name))
	b.WriteString("\n")
	b.WriteString(StopStyle(s.Stop.Reason).Render(s.Stop.String()))
	b.WriteString("\n\n")

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(Subtle.Render(fmt.Sprintf("%-16s %g", k, params[k])))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	rows := []struct{ label, value string }{
		{"samples", fmt.Sprintf("%d", s.Samples)},
		{"duration", fmt.Sprintf("%.4f s", s.Duration)},
		{"final level", fmt.Sprintf("%.4f m", s.FinalLevel)},
		{"final pressure", fmt.Sprintf("%.3f bar", s.FinalPressure/physics.Bar)},
		{"peak speed", fmt.Sprintf("%.3f m/s", s.PeakSpeed)},
		{"peak thrust", fmt.Sprintf("%.2f N", s.PeakThrust)},
		{"mean thrust", fmt.Sprintf("%.2f N", s.MeanThrust)},
		{"impulse", fmt.Sprintf("%.2f Ns", s.Impulse)},
		{"net impulse", fmt.Sprintf("%.2f Ns", s.NetImpulse)},
		{"jet energy", fmt.Sprintf("%.2f J", s.KineticEnergy)},
		{"pressure work", fmt.Sprintf("%.2f J", s.PressureWork)},
	}
	for i, r := range rows {
		b.WriteString(line(r.label, r.value))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return Panel.Render(b.String())
}

// Metrics renders streaming metric values in name order.
func Metrics(m map[string]float64) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	lines := make([]string, len(names))
	for i, k := range names {
		lines[i] = line(k, fmt.Sprintf("%.6g", m[k]))
	}
	return strings.Join(lines, "\n")
}

// SweepTable lays out impulse per fill ratio (rows) and pressure (columns).
func SweepTable(points []sweep.Point) string {
	var pressures, ratios []float64
	seenP := make(map[float64]bool)
	seenR := make(map[float64]bool)
	cell := make(map[[2]float64]float64)
	for _, pt := range points {
		if !seenP[pt.Pressure] {
			seenP[pt.Pressure] = true
			pressures = append(pressures, pt.Pressure)
		}
		if !seenR[pt.FillRatio] {
			seenR[pt.FillRatio] = true
			ratios = append(ratios, pt.FillRatio)
		}
		cell[[2]float64{pt.Pressure, pt.FillRatio}] = pt.Impulse
	}
	sort.Float64s(pressures)
	sort.Float64s(ratios)

	headers := []string{"z0/H"}
	for _, p := range pressures {
		headers = append(headers, fmt.Sprintf("%g bar", p/physics.Bar))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))).
		Headers(headers...)
	for _, r := range ratios {
		row := []string{fmt.Sprintf("%.2f", r)}
		for _, p := range pressures {
			j, ok := cell[[2]float64{p, r}]
			switch {
			case !ok:
				row = append(row, "")
			case j <= 0:
				row = append(row, "-")
			default:
				row = append(row, fmt.Sprintf("%.2f", j))
			}
		}
		t.Row(row...)
	}
	return t.Render()
}
