package main

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/compass/internal/domain/cycles"
	"github.com/okian/compass/internal/domain/model"
)

func (c *cli) cyclesCmd() *cobra.Command {
	f := &cycles.Filter{}
	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "Test-cycle rework, duration and summary metrics",
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.Client, "client", "", "only this client")
	pf.StringVar(&f.Project, "project", "", "only this project")
	pf.StringVar(&f.Manager, "manager", "", "only this resolved manager")
	pf.StringVar(&f.Status, "status", "", "only this status")

	selected := func() []model.TestCycle {
		return cycles.Select(c.svc.Cycles(), *f)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "rework",
			Short: "Projects ranked by average rework percentage",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				entries := cycles.RankByReworkPerProjectAverage(selected())
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						strconv.Itoa(e.Rank), e.Client, e.Project,
						pct(e.AverageRework), strconv.Itoa(e.Sprints), string(e.Severity),
					})
				}
				return c.render(cmd, tabular{
					value:   entries,
					headers: []string{"#", "Client", "Project", "Avg rework", "Sprints", "Severity"},
					rows:    rows,
				})
			},
		},
		&cobra.Command{
			Use:   "duration",
			Short: "Sprints ranked by duration in days",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				entries := cycles.RankByDuration(selected())
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						strconv.Itoa(e.Rank), e.Client, e.Project, e.Sprint,
						strconv.Itoa(e.DurationDays), e.Status,
					})
				}
				return c.render(cmd, tabular{
					value:   entries,
					headers: []string{"#", "Client", "Project", "Sprint", "Days", "Status"},
					rows:    rows,
				})
			},
		},
		&cobra.Command{
			Use:   "summary",
			Short: "Totals and status counts over the filtered cycles",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s := cycles.Summarize(selected())
				rows := [][]string{
					{"Cycles", strconv.Itoa(s.Cycles)},
					{"Correction hours", num(s.CorrectionHours)},
					{"Correction cards", num(s.CorrectionCards)},
					{"Total hours", num(s.TotalHours)},
					{"Total cards", num(s.TotalCards)},
					{"Average rework", pct(s.AverageRework)},
					{"Max cycle count", strconv.Itoa(s.MaxCycleCount)},
				}
				statuses := make([]string, 0, len(s.ByStatus))
				for status := range s.ByStatus {
					statuses = append(statuses, status)
				}
				sort.Strings(statuses)
				for _, status := range statuses {
					rows = append(rows, []string{"Status: " + status, strconv.Itoa(s.ByStatus[status])})
				}
				return c.render(cmd, tabular{value: s, headers: []string{"Metric", "Value"}, rows: rows})
			},
		},
	)
	return cmd
}
