package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/compass/internal/domain/audit"
	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/internal/domain/scoring"
	"github.com/okian/compass/internal/export"
)

// auditFilter binds the audit list selector flags.
type auditFilter struct {
	audit.Filter
	minScore float64
	enrich   bool
}

func bindAuditFilter(cmd *cobra.Command) *auditFilter {
	f := &auditFilter{}
	fl := cmd.Flags()
	fl.StringVar(&f.Project, "project", "", "only this project")
	fl.StringVar(&f.Status, "status", "", "only this status (Aprovado, Aprovado com Ressalvas, Reprovado)")
	fl.StringVar(&f.Manager, "manager", "", "only this manager")
	fl.StringVar(&f.Sprint, "sprint", "", "sprint substring")
	fl.StringVar(&f.Auditor, "auditor", "", "auditor substring")
	fl.StringVar(&f.DateFrom, "from", "", "audit date lower bound, YYYY-MM-DD")
	fl.StringVar(&f.DateTo, "to", "", "audit date upper bound, YYYY-MM-DD")
	fl.Float64Var(&f.minScore, "min-score", 0, "minimum score")
	fl.BoolVar(&f.enrich, "enrich", false, "fill hours and manager from matching test cycles")
	return f
}

func (c *cli) listAudits(cmd *cobra.Command, f *auditFilter) ([]model.Audit, error) {
	filter := f.Filter
	if cmd.Flags().Changed("min-score") {
		v := f.minScore
		filter.MinScore = &v
	}
	list, err := c.svc.Audits().List(cmd.Context(), filter)
	if err != nil {
		return nil, err
	}
	if f.enrich {
		list = audit.Enrich(list, c.svc.Cycles())
	}
	return list, nil
}

func (c *cli) auditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audits",
		Short: "Sprint audit records",
	}
	cmd.AddCommand(
		c.auditsListCmd(),
		c.auditsCreateCmd(),
		c.auditsDeleteCmd(),
		c.auditsGenerateCmd(),
		c.auditsKPIsCmd(),
		c.auditsExportCmd(),
	)
	return cmd
}

func auditRows(list []model.Audit) [][]string {
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			a.ID, a.AuditDate, a.Project, a.Sprint, a.Manager, a.Auditor,
			num(a.ScoreTotal), string(a.Status), optionalNum(a.HoursDelta),
		})
	}
	return rows
}

var auditHeaders = []string{"ID", "Date", "Project", "Sprint", "Manager", "Auditor", "Score", "Status", "Δ hours"}

func (c *cli) auditsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audits, newest first",
		Args:  cobra.NoArgs,
	}
	f := bindAuditFilter(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		list, err := c.listAudits(cmd, f)
		if err != nil {
			return err
		}
		return c.render(cmd, tabular{value: list, headers: auditHeaders, rows: auditRows(list)})
	}
	return cmd
}

// parseChecklist accepts criterion numbers (1-15) or keys.
func parseChecklist(values []string) (model.Checklist, error) {
	var met [model.ChecklistSize]bool
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		idx := -1
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= model.ChecklistSize {
			idx = n - 1
		} else {
			for i, cr := range scoring.Criteria {
				if strings.EqualFold(cr.Key, v) {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			return model.Checklist{}, fmt.Errorf("%w: %q", ErrUnknownCriterion, v)
		}
		met[idx] = true
	}
	return model.ChecklistFromValues(met), nil
}

func (c *cli) auditsCreateCmd() *cobra.Command {
	var (
		in        audit.Input
		checks    []string
		estimated float64
		spent     float64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Score a sprint checklist and store the audit",
		Example: `  compassctl audits create --project Portal --sprint S3 --auditor Ana \
    --start 2024-03-01 --end 2024-03-14 --check 1,2,3 --check qaTestou100`,
		Args: cobra.NoArgs,
	}
	fl := cmd.Flags()
	fl.StringVar(&in.Project, "project", "", "project name (required)")
	fl.StringVar(&in.Sprint, "sprint", "", "sprint name (required)")
	fl.StringVar(&in.Auditor, "auditor", "", "auditor name (required)")
	fl.StringVar(&in.Manager, "manager", "", "responsible manager")
	fl.StringVar(&in.SprintStart, "start", "", "sprint start date")
	fl.StringVar(&in.SprintEnd, "end", "", "sprint end date")
	fl.IntVar(&in.DurationDays, "duration", 0, "sprint duration in days, recomputed when both dates parse")
	fl.StringVar(&in.AuditDate, "date", "", "audit date (default today)")
	fl.StringVar(&in.Notes, "notes", "", "observations")
	fl.StringVar(&in.CorrectiveActions, "actions", "", "corrective actions")
	fl.StringSliceVar(&checks, "check", nil, "satisfied criteria by number or key, repeatable")
	fl.Float64Var(&estimated, "estimated-hours", 0, "estimated hours")
	fl.Float64Var(&spent, "spent-hours", 0, "hours actually spent")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		checklist, err := parseChecklist(checks)
		if err != nil {
			return err
		}
		in.Checklist = checklist
		if cmd.Flags().Changed("estimated-hours") {
			v := estimated
			in.EstimatedHours = &v
		}
		if cmd.Flags().Changed("spent-hours") {
			v := spent
			in.TotalHoursSpent = &v
		}

		created, err := c.svc.Audits().Create(cmd.Context(), in)
		if err != nil {
			return err
		}
		return c.render(cmd, tabular{value: created, headers: auditHeaders, rows: auditRows([]model.Audit{created})})
	}
	return cmd
}

func (c *cli) auditsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an audit by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.svc.Audits().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}

func (c *cli) auditsGenerateCmd() *cobra.Command {
	var force, reset bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create pending audits for finished test cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reset {
				if err := c.svc.ResetGeneration(cmd.Context()); err != nil {
					return err
				}
			}
			res, err := c.svc.GenerateAudits(cmd.Context(), force)
			if err != nil {
				return err
			}
			return c.render(cmd, tabular{
				value:   res,
				headers: []string{"Created", "Skipped", "Already done"},
				rows:    [][]string{{strconv.Itoa(len(res.Created)), strconv.Itoa(res.Skipped), strconv.FormatBool(res.AlreadyDone)}},
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "run even if generation already ran")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear the stored generation marker first")
	return cmd
}

func (c *cli) auditsKPIsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "Conformance KPIs over the filtered audits",
		Args:  cobra.NoArgs,
	}
	f := bindAuditFilter(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		list, err := c.listAudits(cmd, f)
		if err != nil {
			return err
		}
		k := audit.ComputeKPIs(list)
		last := k.LastAuditDate
		if last == "" {
			last = "-"
		}
		return c.render(cmd, tabular{
			value:   k,
			headers: []string{"Metric", "Value"},
			rows: [][]string{
				{"Total", strconv.Itoa(k.Total)},
				{"Approved", strconv.Itoa(k.Approved)},
				{"Conformance rate", pct(k.ConformanceRate)},
				{"Critical (< 60)", strconv.Itoa(k.Critical)},
				{"Pending", strconv.Itoa(k.Pending)},
				{"Last audit", last},
			},
		})
	}
	return cmd
}

func (c *cli) auditsExportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered audits as CSV or JSON",
		Args:  cobra.NoArgs,
	}
	f := bindAuditFilter(cmd)
	cmd.Flags().StringVar(&format, "format", "", "csv or json (default inferred from --out, else csv)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		fm := export.FormatFromPath(out)
		if format != "" {
			parsed, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			fm = parsed
		}
		list, err := c.listAudits(cmd, f)
		if err != nil {
			return err
		}
		if out == "" {
			return export.Write(cmd.OutOrStdout(), fm, list, c.now())
		}
		if err := export.ToFile(out, fm, list, c.now()); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.ErrOrStderr(), "exported %d audits to %s\n", len(list), out)
		return err
	}
	return cmd
}
