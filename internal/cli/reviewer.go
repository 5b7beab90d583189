package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/schollz/progressbar/v3"
)

// ReviewSession is the editing session a Reviewer walks through.
type ReviewSession interface {
	Text() string
	Pending() []model.Suggestion
	Accept(ctx context.Context, i int) (string, error)
	Reject(ctx context.Context, i int) error
}

// ReviewStats summarizes one review.
type ReviewStats struct {
	Duration time.Duration
	Reviewed int
	Accepted int
	Rejected int
	Skipped  int
}

// Reviewer prompts the user to accept, reject or skip each pending suggestion.
type Reviewer struct {
	startTime   time.Time
	writer      io.Writer
	reader      *NonBlockingReader
	progressBar *progressbar.ProgressBar
	stats       ReviewStats
	statsMutex  sync.RWMutex
}

// NewReviewer creates a reviewer reading choices from reader.
func NewReviewer(reader io.Reader, writer io.Writer) *Reviewer {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Reviewer{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// Review walks the session's suggestions from left to right and returns the
// final text. Choosing quit stops early and keeps every decision made so far.
func (r *Reviewer) Review(ctx context.Context, sess ReviewSession) (string, error) {
	r.startTime = time.Now()
	r.initProgressBar(len(sess.Pending()))

	// Skipped suggestions stay pending and sort before the cursor.
	skipped := 0
	for {
		pending := sess.Pending()
		if skipped >= len(pending) {
			break
		}
		s := pending[skipped]

		if err := r.showSuggestion(sess.Text(), s); err != nil {
			return sess.Text(), err
		}

		choice, err := r.promptChoice(ctx, "Choice", []string{"a", "r", "s", "q"})
		if err != nil {
			return sess.Text(), err
		}

		switch choice {
		case "a":
			if _, err := sess.Accept(ctx, skipped); err != nil {
				return sess.Text(), fmt.Errorf("failed to accept suggestion: %w", err)
			}
			r.record(func(st *ReviewStats) { st.Accepted++ })
		case "r":
			if err := sess.Reject(ctx, skipped); err != nil {
				return sess.Text(), fmt.Errorf("failed to reject suggestion: %w", err)
			}
			r.record(func(st *ReviewStats) { st.Rejected++ })
		case "s":
			skipped++
			r.record(func(st *ReviewStats) { st.Skipped++ })
		case "q":
			return sess.Text(), nil
		}
		r.updateProgress()
	}

	if r.progressBar != nil {
		_ = r.progressBar.Finish()
	}
	return sess.Text(), nil
}

// Stats returns a copy of the review counters.
func (r *Reviewer) Stats() ReviewStats {
	r.statsMutex.RLock()
	defer r.statsMutex.RUnlock()
	stats := r.stats
	if !r.startTime.IsZero() {
		stats.Duration = time.Since(r.startTime)
	}
	return stats
}

// ShowCompletion prints the review summary.
func (r *Reviewer) ShowCompletion() {
	stats := r.Stats()
	summary := fmt.Sprintf("%s Statistics:\n", ChartIcon) +
		fmt.Sprintf("  • Reviewed: %d\n", stats.Reviewed) +
		fmt.Sprintf("  • Accepted: %d\n", stats.Accepted) +
		fmt.Sprintf("  • Rejected: %d\n", stats.Rejected) +
		fmt.Sprintf("  • Skipped: %d\n", stats.Skipped) +
		fmt.Sprintf("  • Time taken: %s", stats.Duration.Round(time.Second))

	if _, err := fmt.Fprintln(r.writer, RenderBox("Review Complete", summary)); err != nil {
		slog.Warn("Failed to write completion box", "error", err)
	}
}

func (r *Reviewer) record(fn func(*ReviewStats)) {
	r.statsMutex.Lock()
	defer r.statsMutex.Unlock()
	r.stats.Reviewed++
	fn(&r.stats)
}

func (r *Reviewer) showSuggestion(text string, s model.Suggestion) error {
	content := Highlight(text, s) + "\n\n" +
		fmt.Sprintf("  %s → %s\n", ErrorStyle.Render(s.Original), SuccessStyle.Render(s.Suggestion)) +
		fmt.Sprintf("  Confidence: %s\n", FormatConfidence(s.Confidence, s.Band)) +
		fmt.Sprintf("  Rule: %s", SubtleStyle.Render(s.Pattern))
	if s.Explanation != "" {
		content += fmt.Sprintf("\n  %s %s", InfoIcon, s.Explanation)
	}

	if _, err := fmt.Fprintln(r.writer, RenderBox("Suggestion", content)); err != nil {
		return fmt.Errorf("failed to write suggestion box: %w", err)
	}
	if _, err := fmt.Fprintln(r.writer, "  [A] Accept  [R] Reject  [S] Skip  [Q] Quit"); err != nil {
		return fmt.Errorf("failed to write options: %w", err)
	}
	return nil
}

func (r *Reviewer) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		if _, err := fmt.Fprintf(r.writer, "%s: ", FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := r.reader.ReadLine(ctx)
		if errors.Is(err, ErrInputCancelled) {
			return "", ctx.Err()
		}
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(r.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

func (r *Reviewer) initProgressBar(total int) {
	if total == 0 {
		r.progressBar = nil
		return
	}
	r.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Reviewing suggestions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(r.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// updateProgress advances the bar, growing it when an accept surfaced new suggestions.
func (r *Reviewer) updateProgress() {
	if r.progressBar == nil {
		return
	}
	if st := r.Stats(); int64(st.Reviewed) > r.progressBar.GetMax64() {
		r.progressBar.ChangeMax(st.Reviewed)
	}
	if err := r.progressBar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}
