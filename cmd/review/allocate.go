package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/core-knowledge/internal/allocation"
	"github.com/p-n-ai/core-knowledge/internal/catalog"
	"github.com/p-n-ai/core-knowledge/internal/generator"
)

type allocateFlags struct {
	weeks      string
	pool       string
	maxWeeks   int
	repetition string
	output     string
}

type allocateOutput struct {
	Weeks           []allocation.Week `json:"weeks" yaml:"weeks"`
	UnusedPoolWords []string          `json:"unused_pool_words" yaml:"unused_pool_words"`
}

func newAllocateCmd(c *cli) *cobra.Command {
	var f allocateFlags
	cmd := &cobra.Command{
		Use:   "allocate CATALOG",
		Short: "Allocate a lesson catalog to weeks without writing questions",
		Long:  "Allocate reads a catalog (.xlsx unit plan, .yaml or .json) and prints the weekly core and extension lists.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAllocate(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.weeks, "weeks", "", "week assignments JSON file")
	cmd.Flags().StringVar(&f.pool, "pool", "", "pool words: a word list or a .docx booklet")
	cmd.Flags().IntVar(&f.maxWeeks, "max-weeks", -1, "stop after this many weeks in auto mode")
	cmd.Flags().StringVar(&f.repetition, "repetition", "", "none or cycle")
	cmd.Flags().StringVarP(&f.output, "output", "o", "json", "json or yaml")
	return cmd
}

func (c *cli) runAllocate(cmd *cobra.Command, path string, f allocateFlags) error {
	if f.output != "json" && f.output != "yaml" {
		return fmt.Errorf("unknown output %q", f.output)
	}

	cat, err := catalog.Load(path)
	if err != nil {
		return err
	}

	var pool []string
	if f.pool != "" {
		if pool, err = readPool(f.pool); err != nil {
			return err
		}
	}

	rep := c.cfg.RepetitionPolicy()
	if f.repetition != "" {
		if rep, err = allocation.ParseRepetition(f.repetition); err != nil {
			return err
		}
	}
	maxWeeks := c.cfg.Allocation.MaxWeeks
	if f.maxWeeks >= 0 {
		maxWeeks = f.maxWeeks
	}

	var alloc allocation.Allocation
	if f.weeks != "" {
		weeks, err := generator.LoadAssignments(f.weeks)
		if err != nil {
			return err
		}
		alloc = allocation.BuildFromAssignments(cat, pool, weeks, allocation.WithRepetition(rep))
	} else {
		alloc = allocation.BuildAuto(cat, pool, maxWeeks, allocation.WithRepetition(rep))
	}
	if alloc.Empty() {
		return generator.ErrNothingToGenerate
	}

	result := allocateOutput{Weeks: alloc.Weeks, UnusedPoolWords: alloc.UnusedPoolWords(pool)}
	if result.UnusedPoolWords == nil {
		result.UnusedPoolWords = []string{}
	}

	out := cmd.OutOrStdout()
	if f.output == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
