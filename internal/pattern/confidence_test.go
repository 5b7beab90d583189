package pattern

import (
	"testing"

	"github.com/Veraticus/phonocorrect/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidence(t *testing.T) {
	tests := []struct {
		name  string
		base  float64
		usage model.Usage
		want  float64
	}{
		{name: "no history", base: 0.9, want: 0.875},
		{name: "always accepted", base: 0.9, usage: model.Usage{TimesApplied: 10}, want: 0.925},
		{name: "always rejected", base: 0.9, usage: model.Usage{TimesRejected: 10}, want: 0.875},
		{name: "even split", base: 0.9, usage: model.Usage{TimesApplied: 5, TimesRejected: 5}, want: 0.9},
		{name: "clamped high", base: 0.99, usage: model.Usage{TimesApplied: 1}, want: 1},
		{name: "clamped low", base: 0.01, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Confidence(tt.base, tt.usage), 1e-9)
		})
	}
}

func TestBands(t *testing.T) {
	b := DefaultBands()
	assert.Equal(t, BandHigh, b.Label(0.9))
	assert.Equal(t, BandMedium, b.Label(0.89))
	assert.Equal(t, BandMedium, b.Label(0.7))
	assert.Equal(t, BandLow, b.Label(0.69))
	require.NoError(t, b.Validate())

	assert.Error(t, Bands{High: 0.5, Medium: 0.8}.Validate())
	assert.Error(t, Bands{High: 1.2, Medium: 0.8}.Validate())
	assert.Error(t, Bands{High: 0.9, Medium: -0.1}.Validate())
}
