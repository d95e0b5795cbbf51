package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/inkwell/internal/memory"
	"github.com/JaimeStill/inkwell/internal/prompts"
	"github.com/JaimeStill/inkwell/internal/story"
	"github.com/JaimeStill/inkwell/pkg/store"
)

var parseCmd = &cobra.Command{
	Use:   "parse [story.md]",
	Short: "Parse the story and print the page breakdown without generating",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		storyKey = args[0]
	}

	logger := newLogger()

	st, err := store.New(workspace, logger)
	if err != nil {
		return err
	}

	source, err := st.ReadBinary(storyKey)
	if err != nil {
		return err
	}

	parsed, err := story.Parse(source)
	if err != nil {
		return err
	}

	ledger, err := memory.Load(st, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "story: %s\n", storyKey)
	fmt.Fprintf(out, "global context: %d bytes\n", len(parsed.GlobalContext))

	fmt.Fprintf(out, "\npages (%d):\n", len(parsed.Pages))
	for _, page := range parsed.Pages {
		status := "pending"
		if entry := ledger.Entry(page.Title); entry != nil {
			switch {
			case entry.Phase2.Passed:
				status = "complete"
			case entry.Phase1.Passed:
				status = "phase 1 passed"
			case len(entry.Failures) > 0:
				status = fmt.Sprintf("pending (%d recorded failures)", len(entry.Failures))
			}
		}

		dialogue := len(prompts.DialogueChecklist(page.Content))
		fmt.Fprintf(out, "  %d. %s (%d bytes, %d dialogue lines, %s)\n",
			page.Number, page.Title, len(page.Content), dialogue, status)
	}

	fmt.Fprintf(out, "\nentities (%d):\n", len(parsed.Entities))
	for _, entity := range parsed.Entities {
		fmt.Fprintf(out, "  [%s] %s\n", entity.Kind, entity.Name)
	}

	return nil
}
