package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"bare number", "0.83", 0.83, false},
		{"json object", `{"confidence": 0.42}`, 0.42, false},
		{"code fence", "```json\n{\"confidence\": 0.9}\n```", 0.9, false},
		{"think tags", "<think>weighing the odds</think>{\"confidence\": 0.5}", 0.5, false},
		{"embedded object", "Here you go: {\"confidence\": 0.61} as requested", 0.61, false},
		{"out of range", `{"confidence": 1.7}`, 0, true},
		{"negative", "-0.2", 0, true},
		{"empty", "", 0, true},
		{"garbage", "no numbers here", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfidence(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestStripThinkTags(t *testing.T) {
	assert.Equal(t, "0.7", StripThinkTags("<think>\nlong reasoning\n</think>\n0.7"))
	assert.Equal(t, "plain", StripThinkTags("plain"))
}
