package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/phonocorrect/internal/cli"
	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/Veraticus/phonocorrect/internal/rules"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage correction rules",
		Long: `Create, edit and inspect the rules suggestions are built from.

Built-in rules are read-only; their usage is still tracked so that
confidence follows what you accept.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesShowCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesEditCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesToggleCmd())
	cmd.AddCommand(rulesClearCmd())
	cmd.AddCommand(rulesStatsCmd())
	cmd.AddCommand(rulesExportCmd())
	cmd.AddCommand(rulesImportCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List custom rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			list, err := a.store.List(ctx)
			if err != nil {
				return err
			}
			if all, _ := cmd.Flags().GetBool("all"); all {
				builtins, err := a.store.Builtins(ctx)
				if err != nil {
					return err
				}
				list = append(builtins, list...)
			}
			if category, _ := cmd.Flags().GetString("category"); category != "" {
				filtered := list[:0]
				for _, r := range list {
					if strings.EqualFold(r.Category, category) {
						filtered = append(filtered, r)
					}
				}
				list = filtered
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No rules found. Use 'phonocorrect rules add' to create one."))
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, r := range list {
				rows = append(rows, []string{
					r.ID,
					formatRulePair(r),
					r.Category,
					formatEnabled(r.Enabled),
					fmt.Sprintf("%d/%d", r.Usage.TimesApplied, r.Usage.TimesRejected),
				})
			}
			fmt.Fprintln(out, cli.FormatTitle("Rules"))
			fmt.Fprint(out, cli.RenderTable([]string{"ID", "RULE", "CATEGORY", "STATUS", "ACCEPTED/REJECTED"}, rows))
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "include built-in rules")
	cmd.Flags().String("category", "", "only show rules in this category")

	return cmd
}

func rulesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <rule-id>",
		Short: "Show one rule in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(r.ID, describeRule(*r)))
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <misspelling> <correction>",
		Short: "Add a custom rule",
		Long: `Add a rule that suggests <correction> wherever <misspelling> appears.

With --regex the misspelling is an RE2 pattern. Patterns are matched as
whole words unless they carry their own anchors.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			in := model.RuleInput{Misspelling: args[0], Correction: args[1]}
			in.IsRegex, _ = cmd.Flags().GetBool("regex")
			in.CaseSensitive, _ = cmd.Flags().GetBool("case-sensitive")
			in.Description, _ = cmd.Flags().GetString("description")
			in.Category, _ = cmd.Flags().GetString("category")
			in.Examples, _ = cmd.Flags().GetStringSlice("example")
			if disabled, _ := cmd.Flags().GetBool("disabled"); disabled {
				enabled := false
				in.Enabled = &enabled
			}

			r, warnings, err := a.store.Create(cmd.Context(), in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printWarnings(out, warnings)
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created rule %s: %s", r.ID, formatRulePair(*r))))
			return nil
		},
	}

	addRuleFlags(cmd)
	cmd.Flags().Bool("disabled", false, "create the rule disabled")

	return cmd
}

func rulesEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <rule-id>",
		Short: "Edit a custom rule",
		Long:  `Change the fields given as flags. Fields without a flag keep their value.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := patchFromFlags(cmd)
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			r, warnings, err := a.store.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printWarnings(out, warnings)
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Updated rule %s: %s", r.ID, formatRulePair(*r))))
			return nil
		},
	}

	addRuleFlags(cmd)
	cmd.Flags().String("misspelling", "", "new misspelling or pattern")
	cmd.Flags().String("correction", "", "new correction")

	return cmd
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a custom rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted rule "+args[0]))
			return nil
		},
	}
}

func rulesToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <rule-id>",
		Short: "Enable or disable a custom rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.store.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Rule %s is now %s", r.ID, formatEnabled(r.Enabled))))
			return nil
		},
	}
}

func rulesClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every custom rule",
		Long:  `Delete every custom rule. Built-in rules and their usage are kept.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				fmt.Fprint(out, cli.FormatPrompt("Delete all custom rules? [y/N]"))
				answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && answer == "" {
					return common.NewUserError("Aborted.", err)
				}
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Fprintln(out, cli.FormatInfo("Nothing deleted."))
					return nil
				}
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess("All custom rules deleted."))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	return cmd
}

func rulesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show custom rule statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			content := fmt.Sprintf("  • Total rules: %d\n", stats.Total) +
				fmt.Sprintf("  • Enabled: %d\n", stats.Enabled) +
				fmt.Sprintf("  • Disabled: %d\n", stats.Disabled) +
				fmt.Sprintf("  • Corrections applied: %d", stats.TotalUsage)
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(cli.ChartIcon+" Rule Statistics", content))
			return nil
		},
	}
}

func rulesExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export custom rules as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			output, _ := cmd.Flags().GetString("output")
			if output == "" || output == "-" {
				return a.store.WriteExport(cmd.Context(), cmd.OutOrStdout())
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := a.store.WriteExport(cmd.Context(), f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Exported rules to "+output))
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "write to a file instead of standard output")

	return cmd
}

func rulesImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import rules from a JSON export",
		Long: `Import rules from a document written by 'rules export'. Use "-" to read
standard input.

Entries that duplicate an existing rule are added again unless
--skip-duplicates or --overwrite is given. --overwrite wins when both are set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := importOptionsFromFlags(cmd)
			report, err := a.store.Import(cmd.Context(), data, opts)
			if err != nil {
				return err
			}
			printImportReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	addImportFlags(cmd)

	return cmd
}

func addRuleFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("regex", false, "treat the misspelling as a regular expression")
	cmd.Flags().Bool("case-sensitive", false, "match case exactly")
	cmd.Flags().String("description", "", "explanation shown with suggestions")
	cmd.Flags().String("category", "", "rule category (default custom)")
	cmd.Flags().StringSlice("example", nil, "example sentence (repeatable)")
}

func addImportFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("overwrite", false, "replace rules with the same misspelling and correction")
	cmd.Flags().Bool("skip-duplicates", false, "skip rules with the same misspelling and correction")
}

func importOptionsFromFlags(cmd *cobra.Command) rules.ImportOptions {
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	skip, _ := cmd.Flags().GetBool("skip-duplicates")
	return rules.ImportOptions{Overwrite: overwrite, SkipDuplicates: skip}
}

// patchFromFlags builds a patch from the flags the user actually set.
func patchFromFlags(cmd *cobra.Command) (model.RulePatch, error) {
	var patch model.RulePatch
	flags := cmd.Flags()

	stringField := func(name string, dst **string) {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst = &v
		}
	}
	boolField := func(name string, dst **bool) {
		if flags.Changed(name) {
			v, _ := flags.GetBool(name)
			*dst = &v
		}
	}

	stringField("misspelling", &patch.Misspelling)
	stringField("correction", &patch.Correction)
	stringField("description", &patch.Description)
	stringField("category", &patch.Category)
	boolField("regex", &patch.IsRegex)
	boolField("case-sensitive", &patch.CaseSensitive)
	if flags.Changed("example") {
		examples, _ := flags.GetStringSlice("example")
		patch.Examples = &examples
	}

	if patch == (model.RulePatch{}) {
		return patch, fmt.Errorf("nothing to change; pass at least one field flag")
	}
	return patch, nil
}

func printWarnings(out io.Writer, warnings rules.Warnings) {
	for _, w := range warnings {
		fmt.Fprintln(out, cli.FormatWarning(w))
	}
}

func printImportReport(out io.Writer, report *rules.ImportReport) {
	summary := fmt.Sprintf("  • Attempted: %d\n", report.Attempted) +
		fmt.Sprintf("  • Imported: %d\n", report.Imported) +
		fmt.Sprintf("  • Overwritten: %d\n", report.Overwritten) +
		fmt.Sprintf("  • Skipped: %d\n", report.Skipped) +
		fmt.Sprintf("  • Failed: %d", report.Failed)
	fmt.Fprintln(out, cli.RenderBox("Import Complete", summary))
	for _, reason := range report.Reasons {
		fmt.Fprintln(out, cli.FormatWarning(reason))
	}
}

func formatRulePair(r model.Rule) string {
	pair := r.Misspelling + " → " + r.Correction
	if r.IsRegex {
		pair = "/" + r.Misspelling + "/ → " + r.Correction
	}
	return pair
}

func formatEnabled(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func describeRule(r model.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rule: %s\n", formatRulePair(r))
	fmt.Fprintf(&b, "Category: %s\n", r.Category)
	fmt.Fprintf(&b, "Status: %s\n", formatEnabled(r.Enabled))
	if r.CaseSensitive {
		b.WriteString("Case sensitive: yes\n")
	}
	if r.Confidence > 0 {
		fmt.Fprintf(&b, "Base confidence: %s\n", strconv.FormatFloat(r.Confidence, 'f', 2, 64))
	}
	if r.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", r.Description)
	}
	for _, ex := range r.Examples {
		fmt.Fprintf(&b, "Example: %s\n", ex)
	}
	fmt.Fprintf(&b, "Accepted: %d  Rejected: %d", r.Usage.TimesApplied, r.Usage.TimesRejected)
	if r.Usage.LastUsed != nil {
		fmt.Fprintf(&b, "\nLast used: %s", r.Usage.LastUsed.Format("2006-01-02 15:04"))
	}
	return b.String()
}
