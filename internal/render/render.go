// Package render fills a server-supplied HTML template with analysis
// items. The template carries a fixed vocabulary of placeholder markers;
// one repeated-block marker receives the concatenated per-item fragments
// and every known marker token is stripped afterwards, so a partial
// template degrades to skipped substitutions instead of an error.
package render

import (
	"fmt"
	"strings"

	"quizforge/internal/content"
)

// repeatedBlockMarker is where the joined item fragments are spliced in.
const repeatedBlockMarker = "{{#each items}}"

// markerTokens is the full marker vocabulary. Tokens that survive the
// splice (conditionals, per-field markers, or the block marker of an
// unexpected variant) are removed so only literal template text remains.
var markerTokens = []string{
	repeatedBlockMarker,
	"{{/each}}",
	"{{@index}}",
	"{{question}}",
	"{{questionType}}",
	"{{#if options}}",
	"{{#each options}}",
	"{{this}}",
	"{{#if explanation}}",
	"{{explanation}}",
	"{{answer}}",
	"{{/if}}",
	"{{title}}",
	"{{content}}",
}

// Render splices one fragment per item into templateSource at the
// repeated-block marker, in input order, then strips all consumed marker
// tokens. A template without the block marker simply skips the splice.
func Render(templateSource string, analysis *content.Analysis) string {
	out := templateSource
	if idx := strings.Index(out, repeatedBlockMarker); idx >= 0 {
		out = out[:idx] + fragments(analysis) + out[idx+len(repeatedBlockMarker):]
	}
	for _, token := range markerTokens {
		out = strings.ReplaceAll(out, token, "")
	}
	return out
}

func fragments(analysis *content.Analysis) string {
	var b strings.Builder
	if analysis == nil {
		return ""
	}
	if analysis.Kind == content.KindQuestion {
		for i, q := range analysis.Questions {
			writeQuestion(&b, i, q)
		}
		return b.String()
	}
	for _, n := range analysis.Notes {
		writeNote(&b, n)
	}
	return b.String()
}

func writeQuestion(b *strings.Builder, index int, q content.Question) {
	b.WriteString(`<div class="question-item">` + "\n")
	b.WriteString(`  <div class="question-header">` + "\n")
	fmt.Fprintf(b, "    <h3>%d. %s</h3>\n", index+1, q.Prompt)
	fmt.Fprintf(b, `    <span class="question-type">%s</span>`+"\n", content.QuestionTypeLabel(q.QuestionType))
	b.WriteString("  </div>\n")
	if len(q.Options) > 0 {
		b.WriteString(`  <div class="options">` + "\n")
		for i, opt := range q.Options {
			fmt.Fprintf(b, `    <div class="option">%c. %s</div>`+"\n", rune('A'+i), opt)
		}
		b.WriteString("  </div>\n")
	}
	fmt.Fprintf(b, `  <div class="answer"><strong>答案：</strong>%s</div>`+"\n", q.Answer)
	if q.Explanation != "" {
		fmt.Fprintf(b, `  <div class="explanation"><strong>解析：</strong>%s</div>`+"\n", q.Explanation)
	}
	b.WriteString("</div>\n")
}

func writeNote(b *strings.Builder, n content.Note) {
	b.WriteString(`<div class="note-item">` + "\n")
	b.WriteString(`  <div class="note-header">` + "\n")
	fmt.Fprintf(b, "    <h3>%s</h3>\n", n.Title)
	b.WriteString("  </div>\n")
	// Note content may carry simple markup; it passes through unescaped.
	fmt.Fprintf(b, `  <div class="note-content">%s</div>`+"\n", n.Content)
	b.WriteString("</div>\n")
}
