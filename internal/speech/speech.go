// Package speech defines the speech-to-text and text-to-speech boundaries
// and an Assistant that runs dictated text through the correction engine.
//
// Recognition and synthesis are external services. This package only fixes
// the contract they must honour and how their failures surface.
package speech

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/model"
)

var (
	// ErrNoAudio is the cause of a RecognitionError for an empty recording.
	ErrNoAudio = errors.New("no audio samples")
	// ErrNothingToRead is the cause of a SynthesisError for blank text.
	ErrNothingToRead = errors.New("nothing to read")
)

// Transcript is the recognizer's best guess for a recording.
type Transcript struct {
	Text       string
	Confidence float64
}

// Transcriber converts mono PCM samples into text.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (Transcript, error)
}

// VoiceOptions selects how text is spoken.
type VoiceOptions struct {
	Voice    string  `mapstructure:"voice"`
	Language string  `mapstructure:"language"`
	Rate     float64 `mapstructure:"rate"`
	Pitch    float64 `mapstructure:"pitch"`
}

// DefaultVoiceOptions returns a neutral English voice at normal speed.
func DefaultVoiceOptions() VoiceOptions {
	return VoiceOptions{Language: "en-US", Rate: 1, Pitch: 1}
}

// AudioHandle controls playback of synthesized audio.
type AudioHandle interface {
	Play(ctx context.Context) error
	Pause() error
	Stop() error
}

// Synthesizer converts text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts VoiceOptions) (AudioHandle, error)
}

// Checker produces suggestions for a piece of text.
type Checker interface {
	Check(ctx context.Context, text string) (model.SuggestionSet, error)
}

// Dictation is a transcript together with the suggestions computed for it.
type Dictation struct {
	Transcript  Transcript
	Suggestions model.SuggestionSet
}

// lowConfidence is the transcript confidence below which a warning is logged.
const lowConfidence = 0.5

// Assistant joins the speech services to the correction engine.
type Assistant struct {
	stt     Transcriber
	tts     Synthesizer
	checker Checker
	voice   VoiceOptions
}

// NewAssistant creates an Assistant. Either speech service may be nil when
// the caller only needs the other direction.
func NewAssistant(stt Transcriber, tts Synthesizer, checker Checker, voice VoiceOptions) *Assistant {
	return &Assistant{stt: stt, tts: tts, checker: checker, voice: voice}
}

// Dictate transcribes samples and checks the resulting text.
// Recognition failures are returned as *common.RecognitionError.
func (a *Assistant) Dictate(ctx context.Context, samples []float32) (*Dictation, error) {
	if a.stt == nil {
		return nil, &common.RecognitionError{Err: errors.New("no transcriber configured")}
	}
	if len(samples) == 0 {
		return nil, &common.RecognitionError{Err: ErrNoAudio}
	}

	transcript, err := a.stt.Transcribe(ctx, samples)
	if err != nil {
		return nil, asRecognitionError(err)
	}
	if transcript.Confidence < lowConfidence {
		slog.Warn("Low confidence transcript",
			"confidence", transcript.Confidence,
			"chars", len(transcript.Text))
	}

	set, err := a.checker.Check(ctx, transcript.Text)
	if err != nil {
		return nil, err
	}
	return &Dictation{Transcript: transcript, Suggestions: set}, nil
}

// ReadBack speaks text and returns the playing handle.
// Synthesis and playback failures are returned as *common.SynthesisError.
func (a *Assistant) ReadBack(ctx context.Context, text string) (AudioHandle, error) {
	if a.tts == nil {
		return nil, &common.SynthesisError{Err: errors.New("no synthesizer configured")}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &common.SynthesisError{Err: ErrNothingToRead}
	}

	handle, err := a.tts.Synthesize(ctx, text, a.voice)
	if err != nil {
		return nil, asSynthesisError(err)
	}
	if err := handle.Play(ctx); err != nil {
		_ = handle.Stop()
		return nil, asSynthesisError(err)
	}
	return handle, nil
}

func asRecognitionError(err error) error {
	var re *common.RecognitionError
	if errors.As(err, &re) {
		return err
	}
	return &common.RecognitionError{Err: err}
}

func asSynthesisError(err error) error {
	var se *common.SynthesisError
	if errors.As(err, &se) {
		return err
	}
	return &common.SynthesisError{Err: err}
}
