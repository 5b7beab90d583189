package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/phonocorrect/internal/cli"
	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [text...]",
		Short: "Suggest corrections for a piece of text",
		Long: `Check text against the built-in and custom rules and list the suggested
corrections with their confidence.

Text is taken from the arguments, from --file, or from standard input.
With --interactive each suggestion is offered for review and the corrected
text is printed at the end; your decisions feed back into rule confidence.
Add --speak to hear the reviewed text read back with the configured voice.`,
		RunE: runCheck,
	}

	cmd.Flags().StringP("file", "f", "", "read text from a file")
	cmd.Flags().BoolP("interactive", "i", false, "review suggestions one by one")
	cmd.Flags().Bool("lines", false, "check each line separately")
	cmd.Flags().Bool("json", false, "print suggestions as JSON")
	cmd.Flags().Float64("min-confidence", 0, "hide suggestions below this confidence")
	cmd.Flags().Bool("speak", false, "read the reviewed text aloud (with --interactive)")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	interactive, _ := cmd.Flags().GetBool("interactive")
	perLine, _ := cmd.Flags().GetBool("lines")
	asJSON, _ := cmd.Flags().GetBool("json")
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
	speak, _ := cmd.Flags().GetBool("speak")

	if interactive && (perLine || asJSON) {
		return fmt.Errorf("--interactive cannot be combined with --lines or --json")
	}
	if speak && !interactive {
		return fmt.Errorf("--speak reads back the reviewed text and needs --interactive")
	}

	if file, _ := cmd.Flags().GetString("file"); interactive && file == "" && len(args) == 0 {
		return fmt.Errorf("--interactive reads choices from standard input; pass the text as arguments or with --file")
	}

	text, err := readCheckInput(cmd, args)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	eng := a.engine()

	if interactive {
		handler := cli.NewInterruptHandler(out)
		ctx = handler.HandleInterrupts(ctx)

		sess, err := eng.NewSession(ctx, text)
		if err != nil {
			return err
		}
		reviewer := cli.NewReviewer(cmd.InOrStdin(), out)
		final, err := reviewer.Review(ctx, sess)
		if err != nil && !handler.WasInterrupted() {
			return err
		}
		reviewer.ShowCompletion()
		fmt.Fprintln(out, final)

		if speak && !handler.WasInterrupted() {
			if _, err := a.assistant(eng).ReadBack(ctx, final); err != nil {
				return err
			}
		}
		return nil
	}

	texts := []string{text}
	if perLine {
		texts = strings.Split(strings.TrimRight(text, "\n"), "\n")
	}
	sets, err := eng.CheckAll(ctx, texts)
	if err != nil {
		return err
	}
	for i := range sets {
		sets[i].Suggestions = filterByConfidence(sets[i].Suggestions, minConfidence)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if perLine {
			return enc.Encode(sets)
		}
		return enc.Encode(sets[0])
	}

	total := 0
	for i, set := range sets {
		if perLine && len(set.Suggestions) > 0 {
			fmt.Fprintln(out, cli.BoldStyle.Render(fmt.Sprintf("Line %d:", i+1)))
		}
		for _, s := range set.Suggestions {
			fmt.Fprintln(out, formatSuggestion(s))
		}
		total += len(set.Suggestions)
	}
	if total == 0 {
		fmt.Fprintln(out, cli.FormatSuccess("No suggestions."))
	}
	return nil
}

func readCheckInput(cmd *cobra.Command, args []string) (string, error) {
	file, _ := cmd.Flags().GetString("file")
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("pass text as arguments or with --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read standard input: %w", err)
	}
	return string(data), nil
}

func filterByConfidence(in []model.Suggestion, minConfidence float64) []model.Suggestion {
	if minConfidence <= 0 {
		return in
	}
	out := make([]model.Suggestion, 0, len(in))
	for _, s := range in {
		if s.Confidence >= minConfidence {
			out = append(out, s)
		}
	}
	return out
}

func formatSuggestion(s model.Suggestion) string {
	line := fmt.Sprintf("  %s  %s → %s  %s",
		cli.SubtleStyle.Render(fmt.Sprintf("[%d:%d]", s.StartIndex, s.EndIndex)),
		cli.ErrorStyle.Render(s.Original),
		cli.SuccessStyle.Render(s.Suggestion),
		cli.FormatConfidence(s.Confidence, s.Band))
	if s.Explanation != "" {
		line += "\n      " + cli.SubtleStyle.Render(s.Explanation)
	}
	return line
}
