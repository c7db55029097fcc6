package vision

import (
	"context"
	"fmt"
	"io"
)

// describePrompt asks for a condition report of a single inspected item.
const describePrompt = `You are an expert residential property inspector.
Analyse this photo focusing on the item: %q.
Describe its state of conservation, identify the materials (e.g. wood, ceramic, paint)
and explicitly point out any visible damage, stain, scratch or defect.
Be technical, direct and professional. Respond in plain text with no preamble.`

// RefinePrompt asks for a more formal rewrite of inspector notes.
const RefinePrompt = `Improve the following text from a property inspection report, making it more formal,
fixing grammar and keeping every technical detail. Respond with the improved text only.
Original text: %q`

// DescribePrompt returns the image prompt for an item named subject.
func DescribePrompt(subject string) string {
	if subject == "" {
		subject = "general view"
	}
	return fmt.Sprintf(describePrompt, subject)
}

func RefineRequest(text string) string {
	return fmt.Sprintf(RefinePrompt, text)
}

// Describer turns a single photo into a free-text condition description.
type Describer interface {
	Describe(ctx context.Context, r io.Reader, mimeType, subject string) (string, error)
}

// Refiner polishes inspector notes.
type Refiner interface {
	Refine(ctx context.Context, text string) (string, error)
}

// Analyzer is implemented by every backend.
type Analyzer interface {
	Describer
	Refiner
}
