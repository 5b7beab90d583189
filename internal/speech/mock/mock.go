// Package mock provides test doubles for the speech interfaces.
//
// Example:
//
//	stt := &mock.Transcriber{Result: speech.Transcript{Text: "good nite", Confidence: 0.9}}
//	tts := &mock.Synthesizer{}
//	a := speech.NewAssistant(stt, tts, eng, speech.DefaultVoiceOptions())
package mock

import (
	"context"
	"sync"

	"github.com/Veraticus/phonocorrect/internal/speech"
)

var (
	_ speech.Transcriber = (*Transcriber)(nil)
	_ speech.Synthesizer = (*Synthesizer)(nil)
	_ speech.AudioHandle = (*AudioHandle)(nil)
)

// Transcriber is a mock speech.Transcriber.
type Transcriber struct {
	// Err, if non-nil, is returned instead of Result.
	Err error

	// Calls records the length of every sample slice passed in.
	Calls []int

	Result speech.Transcript

	mu sync.Mutex
}

// Transcribe records the call and returns Result, Err.
func (m *Transcriber) Transcribe(_ context.Context, samples []float32) (speech.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, len(samples))
	if m.Err != nil {
		return speech.Transcript{}, m.Err
	}
	return m.Result, nil
}

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	Text    string
	Options speech.VoiceOptions
}

// Synthesizer is a mock speech.Synthesizer that hands out AudioHandles.
type Synthesizer struct {
	// Err, if non-nil, is returned instead of a handle.
	Err error

	// PlayErr is given to every handle this synthesizer creates.
	PlayErr error

	Calls   []SynthesizeCall
	Handles []*AudioHandle

	mu sync.Mutex
}

// Synthesize records the call and returns a new AudioHandle.
func (m *Synthesizer) Synthesize(_ context.Context, text string, opts speech.VoiceOptions) (speech.AudioHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, SynthesizeCall{Text: text, Options: opts})
	if m.Err != nil {
		return nil, m.Err
	}
	h := &AudioHandle{PlayErr: m.PlayErr}
	m.Handles = append(m.Handles, h)
	return h, nil
}

// AudioHandle is a mock speech.AudioHandle tracking its playback state.
type AudioHandle struct {
	PlayErr error

	Playing bool
	Paused  bool
	Stopped bool

	mu sync.Mutex
}

// Play starts playback unless PlayErr is set.
func (h *AudioHandle) Play(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.PlayErr != nil {
		return h.PlayErr
	}
	h.Playing, h.Paused = true, false
	return nil
}

// Pause pauses playback.
func (h *AudioHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Playing, h.Paused = false, true
	return nil
}

// Stop ends playback.
func (h *AudioHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Playing, h.Paused, h.Stopped = false, false, true
	return nil
}
