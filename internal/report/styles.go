package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466")).Padding(0, 2)
	Title  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	Subtle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))

	MetricLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899")).Width(18)
	MetricValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff")).Bold(true)

	// Stop reason colors.
	StatusOK   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	StatusWarn = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	StatusBad  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// Sparkline renders values as a row of block characters, sampled to width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var sb strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			sb.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			sb.WriteString(SparkMid.Render(c))
		default:
			sb.WriteString(SparkLow.Render(c))
		}
	}
	return sb.String()
}
