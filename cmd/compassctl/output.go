package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// tabular is a value that can also be rendered as rows.
type tabular struct {
	value   any
	headers []string
	rows    [][]string
}

// render writes t as indented JSON or as a bordered table.
func (c *cli) render(cmd *cobra.Command, t tabular) error {
	out := cmd.OutOrStdout()
	if c.output == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(t.value)
	}
	_, err := fmt.Fprintln(out, renderTable(t.headers, t.rows))
	return err
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func pct(v float64) string {
	return num(v) + "%"
}

func optionalNum(v *float64) string {
	if v == nil {
		return "-"
	}
	return num(*v)
}
