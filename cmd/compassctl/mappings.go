package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/compass/internal/domain/model"
)

type mappingTable struct {
	Mappings []model.ManagerMapping `json:"mappings"`
	Saved    bool                   `json:"saved"`
}

func (c *cli) renderMappings(cmd *cobra.Command) error {
	m := c.svc.Managers()
	ctx := cmd.Context()
	view := mappingTable{Mappings: m.All(ctx), Saved: m.Saved(ctx)}

	rows := make([][]string, 0, len(view.Mappings))
	for _, mm := range view.Mappings {
		rows = append(rows, []string{mm.Client, mm.Manager})
	}
	return c.render(cmd, tabular{value: view, headers: []string{"Client", "Manager"}, rows: rows})
}

func (c *cli) mappingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Client to manager table",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show the active table",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.renderMappings(cmd)
			},
		},
		&cobra.Command{
			Use:   "add <client> <manager>",
			Short: "Add a client mapping",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := c.svc.Managers().Add(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				c.svc.RefreshManagers(cmd.Context())
				return c.renderMappings(cmd)
			},
		},
		&cobra.Command{
			Use:   "remove <client>",
			Short: "Remove a client mapping",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.svc.Managers().Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				c.svc.RefreshManagers(cmd.Context())
				return c.renderMappings(cmd)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore and persist the default table",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if _, err := c.svc.Managers().Reset(cmd.Context()); err != nil {
					return err
				}
				c.svc.RefreshManagers(cmd.Context())
				return c.renderMappings(cmd)
			},
		},
	)
	return cmd
}

func (c *cli) managerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manager <client>",
		Short: "Resolve the manager responsible for a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := c.svc.Managers().Resolve(cmd.Context(), args[0])
			if c.output == outputJSON {
				return c.render(cmd, tabular{value: model.ManagerMapping{Client: args[0], Manager: mgr}})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), mgr)
			return err
		},
	}
}
