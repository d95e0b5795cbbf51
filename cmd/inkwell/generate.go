package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/inkwell/internal/config"
	"github.com/JaimeStill/inkwell/internal/gen"
	"github.com/JaimeStill/inkwell/internal/memory"
	"github.com/JaimeStill/inkwell/internal/pipeline"
	"github.com/JaimeStill/inkwell/pkg/store"
)

var generateFlags struct {
	twoPhase      bool
	color         bool
	retryCount    int
	layout        string
	noAutoRefs    bool
	pages         string
	startPage     int
	album         bool
	minTotal      int
	minLikeness   int
	minContinuity int
	minLettering  int
	minStory      int
	maxArtifact   string
	container     string
}

var generateCmd = &cobra.Command{
	Use:   "generate [story.md]",
	Short: "Generate artwork for every page of the story",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.BoolVar(&generateFlags.twoPhase, "two-phase", false, "split each page into an art pass and a lettering pass")
	f.BoolVar(&generateFlags.color, "color", false, "render pages in full color instead of monochrome")
	f.IntVar(&generateFlags.retryCount, "retry", 0, "maximum generation attempts per page phase")
	f.StringVar(&generateFlags.layout, "layout", "", "page aspect ratio: portrait, landscape, or square")
	f.BoolVar(&generateFlags.noAutoRefs, "no-auto-refs", false, "disable reference image synthesis for unresolved entities")
	f.StringVar(&generateFlags.pages, "pages", "", "1-based page selector, e.g. 1,3-5")
	f.IntVar(&generateFlags.startPage, "start-page", 0, "skip pages numbered below this")
	f.BoolVar(&generateFlags.album, "album", false, "export passed pages to a single PDF after a successful run")
	f.IntVar(&generateFlags.minTotal, "min-total", 0, "minimum composite review score (0-400)")
	f.IntVar(&generateFlags.minLikeness, "min-likeness", 0, "minimum likeness sub-score (0-100)")
	f.IntVar(&generateFlags.minContinuity, "min-continuity", 0, "minimum continuity sub-score (0-100)")
	f.IntVar(&generateFlags.minLettering, "min-lettering", 0, "minimum lettering sub-score (0-100)")
	f.IntVar(&generateFlags.minStory, "min-story", 0, "minimum story accuracy sub-score (0-100)")
	f.StringVar(&generateFlags.maxArtifact, "max-artifact-size", "", "maximum accepted artifact size, e.g. 25MB")
	f.StringVar(&generateFlags.container, "archive-container", "", "archive container name (connection string via config or env)")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		storyKey = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cfg.Pipeline.Merge(&config.PipelineConfig{
		TwoPhase:        generateFlags.twoPhase,
		Color:           generateFlags.color,
		RetryCount:      generateFlags.retryCount,
		Layout:          generateFlags.layout,
		NoAutoRefs:      generateFlags.noAutoRefs,
		Pages:           generateFlags.pages,
		StartPage:       generateFlags.startPage,
		Album:           generateFlags.album,
		MaxArtifactSize: generateFlags.maxArtifact,
	})
	cfg.Review.Merge(&config.ReviewConfig{
		MinTotal:      generateFlags.minTotal,
		MinLikeness:   generateFlags.minLikeness,
		MinContinuity: generateFlags.minContinuity,
		MinLettering:  generateFlags.minLettering,
		MinStory:      generateFlags.minStory,
	})
	cfg.Archive.Merge(&store.ArchiveConfig{ContainerName: generateFlags.container})
	if err := cfg.Finalize(); err != nil {
		return fmt.Errorf("finalize config: %w", err)
	}

	logger := newLogger()
	logger.Info(
		"inkwell starting",
		"version", cfg.Version,
		"env", cfg.Env(),
		"workspace", workspace,
		"story", storyKey,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(workspace, logger)
	if err != nil {
		return err
	}

	ledger, err := memory.Load(st, logger)
	if err != nil {
		return err
	}

	client, err := gen.NewClient(ctx, &cfg.Gemini, logger)
	if err != nil {
		return err
	}

	var archive store.Archive
	if cfg.Archive.Enabled() {
		archive, err = store.NewArchive(&cfg.Archive, logger)
		if err != nil {
			return err
		}
	}

	rt := &pipeline.Runtime{
		Config:    cfg,
		Store:     st,
		Memory:    ledger,
		Generator: client,
		Reviewer:  client,
		Archive:   archive,
		Logger:    logger,
	}

	result := pipeline.Run(ctx, rt, storyKey)
	for _, file := range result.GeneratedFiles {
		fmt.Fprintln(cmd.OutOrStdout(), file)
	}

	if result.Err != nil {
		return result.Err
	}

	logger.Info("inkwell finished", "message", result.Message)
	return nil
}
