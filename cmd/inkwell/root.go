package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "inkwell",
	Short:        "Quality-gated illustrated page generation from markdown stories",
	Long:         "inkwell parses a narrative markdown document into pages, generates artwork for each page through a review-gated retry loop, and records durable per-page state so interrupted runs resume where they stopped.",
	SilenceUsage: true,
}

// workspace and story are shared by every subcommand: the workspace
// directory roots all artifact keys, and story is the document key
// within it.
var (
	workspace string
	storyKey  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "story workspace directory")
	rootCmd.PersistentFlags().StringVarP(&storyKey, "story", "s", "story.md", "story document key within the workspace")
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
