package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from SubmissionStatus
		to   SubmissionStatus
		want bool
	}{
		{"received to extracting", StatusReceived, StatusExtracting, true},
		{"extracting to extracted", StatusExtracting, StatusExtracted, true},
		{"extracting to extraction_failed", StatusExtracting, StatusExtractionFailed, true},
		{"extracted to analyzing", StatusExtracted, StatusAnalyzing, true},
		{"analyzing to analyzed", StatusAnalyzing, StatusAnalyzed, true},
		{"analyzing to analysis_failed", StatusAnalyzing, StatusAnalysisFailed, true},
		{"analyzed to notified", StatusAnalyzed, StatusNotified, true},
		{"extraction_failed retry", StatusExtractionFailed, StatusExtracting, true},
		{"extraction_failed exhausted", StatusExtractionFailed, StatusFailed, true},
		{"analysis_failed retry", StatusAnalysisFailed, StatusAnalyzing, true},
		{"analysis_failed exhausted", StatusAnalysisFailed, StatusFailed, true},
		{"no jump received to analyzed", StatusReceived, StatusAnalyzed, false},
		{"no jump received to extracted", StatusReceived, StatusExtracted, false},
		{"no skip extracting to analyzing", StatusExtracting, StatusAnalyzing, false},
		{"no backwards extracted to received", StatusExtracted, StatusReceived, false},
		{"notified is final", StatusNotified, StatusReceived, false},
		{"failed is final", StatusFailed, StatusExtracting, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusNotified.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusReceived.IsTerminal())
	assert.False(t, StatusExtractionFailed.IsTerminal())
	assert.False(t, StatusAnalysisFailed.IsTerminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusReceived.Valid())
	assert.True(t, StatusFailed.Valid())
	assert.False(t, SubmissionStatus("bogus").Valid())
	assert.False(t, SubmissionStatus("").Valid())
}
