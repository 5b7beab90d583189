package speech

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Veraticus/phonocorrect/internal/common"
)

// DefaultSpeechCommand is the program CommandSynthesizer runs when none is configured.
const DefaultSpeechCommand = "espeak-ng"

// espeak-ng speaks at 175 words per minute and pitch 50 (of 0-99) by default;
// VoiceOptions.Rate and Pitch scale those.
const (
	baseWordsPerMinute = 175
	basePitch          = 50
	maxPitch           = 99
)

var (
	// ErrPauseUnsupported is returned by handles that can only play or stop.
	ErrPauseUnsupported = errors.New("pause is not supported")
	// ErrAlreadyPlaying is returned when Play is called on a handle that is playing.
	ErrAlreadyPlaying = errors.New("already playing")
)

var _ Synthesizer = CommandSynthesizer{}

// CommandSynthesizer speaks text by running an espeak-compatible program,
// one process per Play.
type CommandSynthesizer struct {
	// Path is the program name or path. Empty means DefaultSpeechCommand.
	Path string
}

// Synthesize resolves the program and returns a handle that runs it on Play.
func (c CommandSynthesizer) Synthesize(_ context.Context, text string, opts VoiceOptions) (AudioHandle, error) {
	name := c.Path
	if name == "" {
		name = DefaultSpeechCommand
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, &common.SynthesisError{Err: fmt.Errorf("speech program %q: %w", name, err)}
	}
	return &commandHandle{path: path, args: CommandArgs(text, opts)}, nil
}

// CommandArgs builds espeak-ng style arguments that speak text with opts.
func CommandArgs(text string, opts VoiceOptions) []string {
	var args []string
	voice := opts.Voice
	if voice == "" {
		voice = opts.Language
	}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	if opts.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(int(math.Round(opts.Rate*baseWordsPerMinute))))
	}
	if opts.Pitch > 0 {
		args = append(args, "-p", strconv.Itoa(min(maxPitch, int(math.Round(opts.Pitch*basePitch)))))
	}
	return append(args, "--", text)
}

// commandHandle plays by running the program to completion.
type commandHandle struct {
	cmd  *exec.Cmd
	path string
	args []string
	mu   sync.Mutex
}

func (h *commandHandle) Play(ctx context.Context) error {
	h.mu.Lock()
	if h.cmd != nil {
		h.mu.Unlock()
		return ErrAlreadyPlaying
	}
	cmd := exec.CommandContext(ctx, h.path, h.args...)
	if err := cmd.Start(); err != nil {
		h.mu.Unlock()
		return fmt.Errorf("failed to start %s: %w", filepath.Base(h.path), err)
	}
	h.cmd = cmd
	h.mu.Unlock()

	err := cmd.Wait()

	h.mu.Lock()
	h.cmd = nil
	h.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(h.path), err)
	}
	return nil
}

func (h *commandHandle) Pause() error { return ErrPauseUnsupported }

// Stop kills the running program, if any.
func (h *commandHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}
