package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/core-knowledge/internal/allocation"
	"github.com/p-n-ai/core-knowledge/internal/app"
	"github.com/p-n-ai/core-knowledge/internal/booklet"
	"github.com/p-n-ai/core-knowledge/internal/generator"
	"github.com/p-n-ai/core-knowledge/internal/questions"
)

type generateFlags struct {
	weeks      string
	pool       string
	maxWeeks   int
	repetition string
	format     string
}

func newGenerateCmd(c *cli) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate [unit]",
		Short: "Generate a unit's Core Knowledge document",
		Long: "Generate reads a unit's plan and preparation booklet, allocates its lessons to weeks and writes <unit>_Core_Knowledge.xlsx.\n" +
			"With --weeks the lessons of each week come from an assignments file and may span units.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var unit string
			if len(args) == 1 {
				unit = args[0]
			}
			return c.runGenerate(cmd, unit, f)
		},
	}

	cmd.Flags().StringVar(&f.weeks, "weeks", "", "week assignments JSON file")
	cmd.Flags().StringVar(&f.pool, "pool", "", "extra pool words: a word list or a .docx booklet")
	cmd.Flags().IntVar(&f.maxWeeks, "max-weeks", -1, "stop after this many weeks in auto mode (default $REVIEW_ALLOCATION_MAX_WEEKS)")
	cmd.Flags().StringVar(&f.repetition, "repetition", "", "none or cycle (default $REVIEW_ALLOCATION_REPETITION)")
	cmd.Flags().StringVar(&f.format, "format", "xlsx", "output format: xlsx or json")
	return cmd
}

func (c *cli) runGenerate(cmd *cobra.Command, unit string, f generateFlags) error {
	if unit == "" && f.weeks == "" {
		return fmt.Errorf("a unit or --weeks is required")
	}
	format, err := generator.ParseFormat(f.format)
	if err != nil {
		return err
	}

	req := generator.Request{
		Unit:       unit,
		MaxWeeks:   c.cfg.Allocation.MaxWeeks,
		Repetition: c.cfg.RepetitionPolicy(),
		Format:     format,
	}
	if f.maxWeeks >= 0 {
		req.MaxWeeks = f.maxWeeks
	}
	if f.repetition != "" {
		if req.Repetition, err = allocation.ParseRepetition(f.repetition); err != nil {
			return err
		}
	}
	if f.weeks != "" {
		if req.Weeks, err = generator.LoadAssignments(f.weeks); err != nil {
			return err
		}
	}
	if f.pool != "" {
		if req.ExtraPool, err = readPool(f.pool); err != nil {
			return err
		}
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

	res, err := a.Generator.Run(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d weeks, %d lessons\n", res.Unit, len(res.Allocation.Weeks), len(res.Allocation.Lessons()))
	fmt.Fprintf(out, "questions: %d ai, %d cached, %d template\n",
		res.Questions.Count(questions.SourceAI),
		res.Questions.Count(questions.SourceCache),
		res.Questions.Count(questions.SourceTemplate),
	)
	if n := res.State.Len(); n > 0 {
		fmt.Fprintf(out, "state questions: %d, %d unanswered\n", n, res.State.Count(questions.SourceTemplate))
	}
	if len(res.UnusedPool) > 0 {
		fmt.Fprintf(out, "unused pool words: %s\n", strings.Join(res.UnusedPool, ", "))
	}
	fmt.Fprintf(out, "wrote %s\n", res.OutputPath)
	return nil
}

// readPool reads pool words from a .docx booklet or a plain word list.
func readPool(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		g, err := booklet.ReadDefinitions(path)
		if err != nil {
			return nil, err
		}
		return g.Words(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pool file: %w", err)
	}
	defer f.Close()
	return booklet.ReadWordList(f)
}
