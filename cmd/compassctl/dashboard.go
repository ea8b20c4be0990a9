package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/compass/internal/domain/aggregate"
	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/internal/domain/types"
)

// logFilter binds the work-log selector flags.
type logFilter struct {
	aggregate.Filter
	preset string
}

func workLogFilter(cmd *cobra.Command) *logFilter {
	f := &logFilter{}
	fl := cmd.Flags()
	fl.StringVar(&f.Collaborator, "collaborator", "", "only this collaborator")
	fl.StringVar(&f.Project, "project", "", "only this project")
	fl.StringVar(&f.DateFrom, "from", "", "start date lower bound, YYYY-MM-DD")
	fl.StringVar(&f.DateTo, "to", "", "start date upper bound, YYYY-MM-DD")
	fl.StringVar(&f.preset, "range", "", "quick date range ("+strings.Join(aggregate.RangePresets, ", ")+"); --from/--to win")
	return f
}

func (c *cli) filteredLogs(f *logFilter) ([]model.WorkLog, error) {
	filter := f.Filter
	if f.preset != "" {
		ranged, ok := filter.WithRange(f.preset, c.now())
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRange, f.preset)
		}
		filter = ranged
	}
	return aggregate.FilterRecords(c.svc.WorkLogs(), filter), nil
}

func (c *cli) summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "KPI summary of the filtered work logs",
		Args:  cobra.NoArgs,
	}
	f := workLogFilter(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		records, err := c.filteredLogs(f)
		if err != nil {
			return err
		}
		s := aggregate.Summarize(records)
		return c.render(cmd, tabular{
			value:   s,
			headers: []string{"Metric", "Value"},
			rows: [][]string{
				{"Total hours", num(s.TotalHours)},
				{"Activities", strconv.Itoa(s.Activities)},
				{"Collaborators", strconv.Itoa(s.Collaborators)},
				{"Projects", strconv.Itoa(s.Projects)},
				{"Average hours", num(s.AverageHours)},
				{"Completed", strconv.Itoa(s.Completed)},
				{"Completion rate", pct(s.CompletionRate)},
				{"Function points", num(s.FunctionPoints)},
				{"Top project", entryLabel(s.TopProject)},
				{"Top collaborator", entryLabel(s.TopCollaborator)},
				{"Top type", entryLabel(s.TopType) + " " + pct(s.TopTypeSharePercent)},
			},
		})
	}
	return cmd
}

func entryLabel(e *types.Entry) string {
	if e == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", e.Name, num(e.Value))
}

func (c *cli) rankCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:       "rank [" + strings.Join(aggregate.Dimensions, "|") + "]",
		Short:     "Rank work-log hours by a dimension (default project)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: aggregate.Dimensions,
	}
	f := workLogFilter(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "keep only the top N entries (0 keeps all)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		dimension := "project"
		if len(args) == 1 {
			dimension = args[0]
		}
		key, ok := aggregate.KeyFor(dimension)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownDimension, dimension)
		}
		if err := c.checkLimit(limit); err != nil {
			return err
		}

		records, err := c.filteredLogs(f)
		if err != nil {
			return err
		}

		entries := aggregate.Top(aggregate.RankHoursBy(records, key), limit)
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{strconv.Itoa(e.Rank), e.Name, num(e.Value)})
		}
		return c.render(cmd, tabular{
			value:   entries,
			headers: []string{"#", dimension, "Hours"},
			rows:    rows,
		})
	}
	return cmd
}

type matrixView struct {
	Collaborators []string              `json:"collaborators"`
	Projects      []string              `json:"projects"`
	Rows          []aggregate.MatrixRow `json:"rows"`
	Max           float64               `json:"max"`
}

func (c *cli) matrixCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Collaborator by project hour allocation",
		Args:  cobra.NoArgs,
	}
	f := workLogFilter(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "restrict axes to the top N collaborators and projects (0 keeps all)")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if err := c.checkLimit(limit); err != nil {
			return err
		}
		records, err := c.filteredLogs(f)
		if err != nil {
			return err
		}
		m := aggregate.TopAllocationMatrix(records, limit)
		view := matrixView{
			Collaborators: m.Collaborators,
			Projects:      m.Projects,
			Rows:          m.Rows(),
			Max:           m.Max(),
		}

		headers := append([]string{"Collaborator"}, m.Projects...)
		headers = append(headers, "Total")
		rows := make([][]string, 0, len(view.Rows))
		for _, r := range view.Rows {
			row := []string{r.Collaborator}
			for _, h := range r.Hours {
				row = append(row, num(h))
			}
			rows = append(rows, append(row, num(r.Total)))
		}
		return c.render(cmd, tabular{value: view, headers: headers, rows: rows})
	}
	return cmd
}
