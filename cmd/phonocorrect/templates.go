package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/phonocorrect/internal/cli"
	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/Veraticus/phonocorrect/internal/templates"
	"github.com/spf13/cobra"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Browse and apply curated rule templates",
	}

	cmd.AddCommand(templatesListCmd())
	cmd.AddCommand(templatesShowCmd())
	cmd.AddCommand(templatesApplyCmd())

	return cmd
}

func templatesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := templates.Default()
			if err != nil {
				return err
			}

			category, _ := cmd.Flags().GetString("category")
			list := catalog.List(category)
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("No templates in category %q. Categories: %s",
					category, strings.Join(catalog.Categories(), ", "))))
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, tmpl := range list {
				rows = append(rows, []string{
					tmpl.ID,
					tmpl.Name,
					tmpl.Category,
					string(tmpl.Difficulty),
					fmt.Sprintf("%d", len(tmpl.Rules)),
				})
			}
			fmt.Fprintln(out, cli.FormatTitle("Templates"))
			fmt.Fprint(out, cli.RenderTable([]string{"ID", "NAME", "CATEGORY", "DIFFICULTY", "RULES"}, rows))
			return nil
		},
	}

	cmd.Flags().String("category", "", "only show templates in this category")

	return cmd
}

func templatesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <template-id>",
		Short: "Show the rules in a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := templates.Default()
			if err != nil {
				return err
			}
			tmpl, err := catalog.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(tmpl.Name, describeTemplate(tmpl)))
			return nil
		},
	}
}

func templatesApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <template-id>",
		Short: "Add a template's rules to your rule set",
		Long: `Add a template's rules to your rule set.

--only selects rules by the index shown in 'templates show'. An index
outside the template rejects the whole application.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := templates.Default()
			if err != nil {
				return err
			}
			tmpl, err := catalog.Get(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			only, _ := cmd.Flags().GetIntSlice("only")
			report, err := a.store.ApplyTemplate(cmd.Context(), tmpl, only, importOptionsFromFlags(cmd))
			if err != nil {
				return err
			}
			printImportReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().IntSlice("only", nil, "apply only the rules at these indices")
	addImportFlags(cmd)

	return cmd
}

func describeTemplate(tmpl model.RuleTemplate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s", tmpl.ID, tmpl.Category, tmpl.Difficulty)
	if tmpl.Version != "" {
		fmt.Fprintf(&b, ", v%s", tmpl.Version)
	}
	b.WriteString(")\n")
	if tmpl.Description != "" {
		b.WriteString(tmpl.Description + "\n")
	}
	for i, in := range tmpl.Rules {
		pair := in.Misspelling + " → " + in.Correction
		if in.IsRegex {
			pair = "/" + in.Misspelling + "/ → " + in.Correction
		}
		fmt.Fprintf(&b, "\n  [%d] %s", i, pair)
		if in.Description != "" {
			fmt.Fprintf(&b, "  %s", cli.SubtleStyle.Render(in.Description))
		}
	}
	return b.String()
}
