package rules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/model"
)

// ImportOptions controls how incoming rules that duplicate existing ones are handled.
// Overwrite takes precedence over SkipDuplicates. With neither set, duplicates
// are added as new rules.
type ImportOptions struct {
	Overwrite      bool
	SkipDuplicates bool
}

// ImportReport counts the outcome of an import, replace or template application.
type ImportReport struct {
	Reasons     []string
	Attempted   int
	Imported    int
	Overwritten int
	Skipped     int
	Failed      int
}

func (r *ImportReport) fail(index int, format string, args ...any) {
	r.Failed++
	r.Reasons = append(r.Reasons, fmt.Sprintf("rule %d: %s", index, fmt.Sprintf(format, args...)))
}

// rawDocument defers decoding of the rules array so one malformed entry does
// not reject the whole document.
type rawDocument struct {
	Version *int            `json:"version"`
	Rules   json.RawMessage `json:"rules"`
}

// ParseDocument decodes a rule document into its entries. Entries that fail to
// decode are returned as nil with an accompanying error message.
func ParseDocument(data []byte) ([]*model.RuleInput, []error, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &common.FormatError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if raw.Version == nil {
		return nil, nil, &common.FormatError{Reason: "missing version"}
	}
	if *raw.Version != model.RuleDocumentVersion {
		return nil, nil, &common.FormatError{Reason: fmt.Sprintf("unsupported version %d", *raw.Version)}
	}
	trimmedRules := bytes.TrimSpace(raw.Rules)
	if len(trimmedRules) == 0 || bytes.Equal(trimmedRules, []byte("null")) {
		return nil, nil, &common.FormatError{Reason: "missing rules"}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmedRules, &entries); err != nil {
		return nil, nil, &common.FormatError{Reason: "rules is not an array"}
	}

	inputs := make([]*model.RuleInput, len(entries))
	errs := make([]error, len(entries))
	for i, entry := range entries {
		var in model.RuleInput
		if err := json.Unmarshal(entry, &in); err != nil {
			errs[i] = err
			continue
		}
		inputs[i] = &in
	}
	return inputs, errs, nil
}

// Export returns the user rules as a rule document.
func (s *Store) Export(ctx context.Context) (*model.RuleDocument, error) {
	rules, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	doc := &model.RuleDocument{
		Version:    model.RuleDocumentVersion,
		ExportedAt: s.now().UTC(),
		Rules:      make([]model.RuleInput, 0, len(rules)),
	}
	for _, r := range rules {
		doc.Rules = append(doc.Rules, r.Input())
	}
	return doc, nil
}

// WriteExport writes the exported rule document as indented JSON.
func (s *Store) WriteExport(ctx context.Context, w io.Writer) error {
	doc, err := s.Export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode rule document: %w", err)
	}
	return nil
}

// Import merges a rule document into the user rule set in one atomic batch.
// A document-level problem returns a *common.FormatError and imports nothing.
func (s *Store) Import(ctx context.Context, data []byte, opts ImportOptions) (*ImportReport, error) {
	inputs, decodeErrs, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{}
	err = s.mutate(ctx, func(next *Snapshot) error {
		for i, in := range inputs {
			report.Attempted++
			if decodeErrs[i] != nil {
				report.fail(i, "malformed entry: %v", decodeErrs[i])
				continue
			}
			s.mergeInput(next, report, i, *in, "", opts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Imported rules",
		"attempted", report.Attempted,
		"imported", report.Imported,
		"overwritten", report.Overwritten,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, nil
}

// ApplyTemplate imports the template's rules at the given indices, or all of
// them when indices is empty.
func (s *Store) ApplyTemplate(ctx context.Context, tmpl model.RuleTemplate, indices []int, opts ImportOptions) (*ImportReport, error) {
	selected := tmpl.Rules
	if len(indices) > 0 {
		selected = make([]model.RuleInput, 0, len(indices))
		for _, idx := range indices {
			if idx < 0 || idx >= len(tmpl.Rules) {
				return nil, common.NewValidationError("indices",
					fmt.Sprintf("index %d out of range for template %q with %d rules", idx, tmpl.ID, len(tmpl.Rules)))
			}
			selected = append(selected, tmpl.Rules[idx])
		}
	}

	report := &ImportReport{}
	err := s.mutate(ctx, func(next *Snapshot) error {
		for i, in := range selected {
			report.Attempted++
			s.mergeInput(next, report, i, in, tmpl.Category, opts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Applied template",
		"template", tmpl.ID,
		"imported", report.Imported,
		"skipped", report.Skipped)
	return report, nil
}

// Replace makes the document the complete user rule set. Rules whose
// duplicate key matches an existing rule keep that rule's id, creation time
// and usage. Built-in usage is untouched.
func (s *Store) Replace(ctx context.Context, data []byte) (*ImportReport, error) {
	inputs, decodeErrs, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{}
	err = s.mutate(ctx, func(next *Snapshot) error {
		previous := next.Rules
		next.Rules = make([]model.Rule, 0, len(inputs))
		for i, in := range inputs {
			report.Attempted++
			if decodeErrs[i] != nil {
				report.fail(i, "malformed entry: %v", decodeErrs[i])
				continue
			}
			if _, err := Validate(*in); err != nil {
				report.fail(i, "%v", err)
				continue
			}
			if findByKey(next.Rules, in.Misspelling, in.Correction, "") != nil {
				report.Skipped++
				continue
			}
			if prev := findByKey(previous, in.Misspelling, in.Correction, ""); prev != nil {
				next.Rules = append(next.Rules, s.overwrite(*prev, *in))
				report.Overwritten++
				continue
			}
			next.Rules = append(next.Rules, s.newRule(*in, ""))
			report.Imported++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// mergeInput adds one validated input to next according to opts.
func (s *Store) mergeInput(next *Snapshot, report *ImportReport, index int, in model.RuleInput, defaultCategory string, opts ImportOptions) {
	if _, err := Validate(in); err != nil {
		report.fail(index, "%v", err)
		return
	}

	if dup := findByKey(next.Rules, in.Misspelling, in.Correction, ""); dup != nil {
		switch {
		case opts.Overwrite:
			if in.Category == "" {
				in.Category = defaultCategory
			}
			*dup = s.overwrite(*dup, in)
			report.Overwritten++
			return
		case opts.SkipDuplicates:
			report.Skipped++
			return
		}
	}

	next.Rules = append(next.Rules, s.newRule(in, defaultCategory))
	report.Imported++
}

// overwrite replaces a rule's definition while keeping its identity and usage.
func (s *Store) overwrite(existing model.Rule, in model.RuleInput) model.Rule {
	fresh := s.newRule(in, existing.Category)
	fresh.ID = existing.ID
	fresh.CreatedAt = existing.CreatedAt
	fresh.Usage = existing.Usage
	return fresh
}
