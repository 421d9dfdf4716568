// Command review generates Core Knowledge weekly word lists from a lesson
// resources tree.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/p-n-ai/core-knowledge/internal/platform/config"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli is shared by every subcommand. cfg is loaded before any command runs.
type cli struct {
	cfg *config.Config

	resources string
	outputDir string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "review",
		Short:         "Build Core Knowledge weekly word lists",
		Long:          "review reads unit plans and preparation booklets, allocates lessons to weeks with core and extension word lists, writes a question for every word and exports the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&c.resources, "resources", "", "lesson resources root (default $REVIEW_LESSON_RESOURCES)")
	root.PersistentFlags().StringVar(&c.outputDir, "output-dir", "", "output directory (default $REVIEW_OUTPUT_DIR)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error (default $REVIEW_LOG_LEVEL)")

	root.AddCommand(
		newGenerateCmd(c),
		newAllocateCmd(c),
		newUnitsCmd(c),
		newTermsCmd(c),
		newRunsCmd(c),
	)
	return root
}

// load reads the environment configuration and applies flag overrides.
func (c *cli) load(logOut io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.resources != "" {
		cfg.Paths.LessonResources = c.resources
	}
	if c.outputDir != "" {
		cfg.Paths.OutputDir = c.outputDir
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	// Progress goes to stderr as text; stdout carries command output.
	cfg.Log.Format = "text"
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.SetDefault(cfg.Log.Logger(logOut))
	c.cfg = cfg
	return nil
}
