package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "plain text untouched",
			raw:      "Ceramic sink with a hairline crack near the tap.",
			expected: "Ceramic sink with a hairline crack near the tap.",
		},
		{
			name:     "preamble dropped",
			raw:      "Here is the improved text:\n\nThe wall shows moisture stains.",
			expected: "The wall shows moisture stains.",
		},
		{
			name:     "several preamble lines",
			raw:      "Sure:\nBased on the photo:\nWooden door, good condition.",
			expected: "Wooden door, good condition.",
		},
		{
			name:     "content starting with Here kept",
			raw:      "Here the paint is peeling over the window.",
			expected: "Here the paint is peeling over the window.",
		},
		{
			name:     "surrounding quotes",
			raw:      "\"The floor is scratched.\"",
			expected: "The floor is scratched.",
		},
		{
			name:     "markdown emphasis",
			raw:      "**Material:** laminate\n**Damage:** none",
			expected: "Material: laminate\nDamage: none",
		},
		{
			name:     "crlf line endings",
			raw:      "Here you go:\r\nTiles intact.\r\n",
			expected: "Tiles intact.",
		},
		{
			name:     "empty",
			raw:      "  \n ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanResponse(tt.raw))
		})
	}
}

func TestDescribePrompt(t *testing.T) {
	assert.Contains(t, DescribePrompt("Kitchen sink"), `"Kitchen sink"`)
	assert.Contains(t, DescribePrompt(""), `"general view"`)
	assert.Contains(t, RefineRequest("parede suja"), `"parede suja"`)
}
