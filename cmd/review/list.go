package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/core-knowledge/internal/app"
	"github.com/p-n-ai/core-knowledge/internal/resources"
	"github.com/p-n-ai/core-knowledge/internal/term"
)

func newUnitsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List the units in the lesson resources tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root := c.cfg.Paths.LessonResources
			codes, err := resources.ListUnits(root)
			if err != nil {
				return err
			}
			if len(codes) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no units found in %s\n", root)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, code := range codes {
				u, err := resources.FindUnit(root, code)
				if err != nil {
					fmt.Fprintf(tw, "%s\t(%v)\n", code, err)
					continue
				}
				booklet := "no booklet"
				if u.Booklet != "" {
					booklet = "booklet"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Code, u.Name, booklet)
			}
			return tw.Flush()
		},
	}
}

func newTermsCmd(c *cli) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "terms",
		Short: "List half terms and their teaching weeks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = c.cfg.Paths.TermCalendar
			}
			cal, err := term.Load(path)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, h := range cal.HalfTerms() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d weeks\n", h.Year, h.Term, h.Name, h.Weeks)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&path, "calendar", "", "term.json file (default $REVIEW_TERM_CALENDAR)")
	return cmd
}

func newRunsCmd(c *cli) *cobra.Command {
	var (
		unit  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent generation runs from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Database.URL == "" {
				return fmt.Errorf("REVIEW_DATABASE_URL is not set")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := app.New(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.History.Recent(ctx, unit, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d weeks\t%s\n", r.StartedAt.Format("2006-01-02 15:04"), r.Unit, r.Mode, r.Weeks, r.OutputPath)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "", "only runs for this unit")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs")
	return cmd
}
