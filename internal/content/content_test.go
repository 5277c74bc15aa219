package content

import "testing"

func TestQuestionTypeLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single choice", "single_choice", "单选题"},
		{"multiple choice", "multiple_choice", "多选题"},
		{"true false", "true_false", "判断题"},
		{"unknown tag passes through", "fill_blank", "fill_blank"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := QuestionTypeLabel(tt.in); got != tt.want {
				t.Fatalf("QuestionTypeLabel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAnalysisLenAndItems(t *testing.T) {
	t.Parallel()

	questions := &Analysis{
		Kind: KindQuestion,
		Questions: []Question{
			{Prompt: "1+1?", Answer: "2"},
			{Prompt: "2+2?", Answer: "4"},
		},
	}
	if questions.Len() != 2 {
		t.Fatalf("question Len() = %d, want 2", questions.Len())
	}
	if items := questions.Items(); len(items) != 2 {
		t.Fatalf("question Items() has %d entries, want 2", len(items))
	}

	notes := &Analysis{
		Kind:  KindNote,
		Notes: []Note{{Title: "Go", Content: "A language."}},
	}
	if notes.Len() != 1 {
		t.Fatalf("note Len() = %d, want 1", notes.Len())
	}

	var nilAnalysis *Analysis
	if nilAnalysis.Len() != 0 || nilAnalysis.Items() != nil {
		t.Fatal("nil analysis should report zero items")
	}
}

func TestDisplayTitleFallback(t *testing.T) {
	t.Parallel()

	if got := (&Analysis{Title: "  "}).DisplayTitle(); got != "未命名" {
		t.Fatalf("blank title fallback = %q", got)
	}
	if got := (&Analysis{Title: "算法笔记"}).DisplayTitle(); got != "算法笔记" {
		t.Fatalf("title = %q, want 算法笔记", got)
	}
}
