package trace

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"scrollwatch/internal/scroll"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Table renders replay results, one row per sample
func Table(t *Trace, results []scroll.VelocityState) string {
	rows := make([][]string, 0, len(results))
	for i, s := range results {
		rows = append(rows, []string{
			strconv.FormatInt(t.Samples[i].TMS, 10),
			formatFloat(s.Position.X),
			formatFloat(s.Position.Y),
			formatFloat(s.Delta.X),
			formatFloat(s.Delta.Y),
			string(s.Direction.X),
			string(s.Direction.Y),
			FormatRate(s.Velocity.X),
			FormatRate(s.Velocity.Y),
			strconv.Itoa(len(s.History)),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("241"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("t (ms)", "x", "y", "dx", "dy", "dir x", "dir y", "vx (/ms)", "vy (/ms)", "history").
		Rows(rows...).
		String()
}

// FormatRate renders a nullable velocity component, "-" when unknown
func FormatRate(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
