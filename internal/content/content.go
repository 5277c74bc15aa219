package content

import "strings"

// Kind discriminates the two analysis result variants.
type Kind string

const (
	KindQuestion Kind = "question"
	KindNote     Kind = "note"
)

// Question is one quiz item extracted by the analysis service.
type Question struct {
	Prompt       string   `json:"question"`
	QuestionType string   `json:"questionType"`
	Options      []string `json:"options,omitempty"`
	Answer       string   `json:"answer"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Note is one knowledge-point item extracted by the analysis service.
type Note struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Analysis is the structured result of one analyze call. Exactly one of
// Questions or Notes is populated, selected by Kind.
type Analysis struct {
	Kind      Kind
	Title     string
	Questions []Question
	Notes     []Note
	FileID    string
}

// Len returns the number of items regardless of variant.
func (a *Analysis) Len() int {
	if a == nil {
		return 0
	}
	if a.Kind == KindQuestion {
		return len(a.Questions)
	}
	return len(a.Notes)
}

// Items returns the variant payload in wire order, ready for the generate
// request body.
func (a *Analysis) Items() []any {
	if a == nil {
		return nil
	}
	if a.Kind == KindQuestion {
		items := make([]any, 0, len(a.Questions))
		for _, q := range a.Questions {
			items = append(items, q)
		}
		return items
	}
	items := make([]any, 0, len(a.Notes))
	for _, n := range a.Notes {
		items = append(items, n)
	}
	return items
}

var questionTypeLabels = map[string]string{
	"single_choice":   "单选题",
	"multiple_choice": "多选题",
	"true_false":      "判断题",
}

// QuestionTypeLabel maps a question type tag to its display label. Unknown
// tags pass through unchanged rather than being rejected.
func QuestionTypeLabel(questionType string) string {
	if label, ok := questionTypeLabels[questionType]; ok {
		return label
	}
	return questionType
}

// DisplayTitle returns the analysis title or a placeholder when the server
// produced none.
func (a *Analysis) DisplayTitle() string {
	if a == nil || strings.TrimSpace(a.Title) == "" {
		return "未命名"
	}
	return a.Title
}

// KindLabel is the human-readable label for a result variant.
func KindLabel(kind Kind) string {
	if kind == KindQuestion {
		return "题目"
	}
	return "笔记"
}
