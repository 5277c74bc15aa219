package guide

import (
	"fmt"
	"strings"
)

// Step represents one actionable recommendation in the study workflow.
type Step struct {
	Title       string
	Description string
}

// Metadata carries just enough context for personalizing guide steps.
type Metadata struct {
	SourceName string
	HasUpload  bool
}

// Build returns a walkthrough of the material-to-quiz workflow tailored to
// how the session was started.
func Build(meta Metadata) []Step {
	source := strings.TrimSpace(meta.SourceName)
	if source == "" {
		source = "your study material"
	}

	steps := []Step{}
	if meta.HasUpload {
		steps = append(steps, Step{
			Title:       "Step 1 – Parse the document",
			Description: fmt.Sprintf("Extract the text of %s on the server. Word and PDF documents are supported; skim the extracted text to make sure nothing important was lost.", source),
		})
	} else {
		steps = append(steps, Step{
			Title:       "Step 1 – Paste your material",
			Description: "Paste at least a paragraph of study material. Very short snippets (under ten characters) are rejected before they reach the server.",
		})
	}

	return append(steps,
		Step{
			Title:       "Step 2 – Analyze",
			Description: "Send the text for analysis. The server decides whether it reads like exam questions or study notes and structures it accordingly.",
		},
		Step{
			Title:       "Step 3 – Review the preview",
			Description: "A rendered preview appears once the matching template is fetched. Check question numbering, options, and answers before committing to generation.",
		},
		Step{
			Title:       "Step 4 – Generate",
			Description: "Start HTML generation on the server. Status is polled every couple of seconds; a transient poll failure just means the next poll will try again.",
		},
		Step{
			Title:       "Step 5 – Download",
			Description: "When the job completes, download the HTML file or copy its link. Point the download base at a mirror if the API host is not directly reachable.",
		},
	)
}
