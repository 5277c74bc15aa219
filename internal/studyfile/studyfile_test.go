package studyfile

import (
	"strings"
	"testing"

	"quizforge/internal/gateway"
)

func TestInspectExtensionMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fileName string
		mimeType string
		want     Type
	}{
		{"docx word", "notes.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", TypeWord},
		{"legacy doc", "chapter.doc", "application/msword", TypeWord},
		{"pdf", "slides.pdf", "application/pdf", TypePDF},
		{"uppercase extension", "NOTES.DOCX", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", TypeWord},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Inspect(tt.fileName, tt.mimeType)
			if err != nil {
				t.Fatalf("Inspect(%q) returned error: %v", tt.fileName, err)
			}
			if got != tt.want {
				t.Errorf("Inspect(%q) = %q, want %q", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestInspectRejectsUnknownExtension(t *testing.T) {
	t.Parallel()

	_, err := Inspect("notes.txt", "text/plain")
	if err == nil {
		t.Fatal("Inspect accepted a .txt file")
	}
	if code := gateway.CodeOf(err); code != gateway.CodeUnsupportedFileType {
		t.Errorf("error code = %q, want %q", code, gateway.CodeUnsupportedFileType)
	}
}

func TestInspectRejectsMismatchedMIME(t *testing.T) {
	t.Parallel()

	_, err := Inspect("notes.docx", "text/plain")
	if err == nil {
		t.Fatal("Inspect accepted a docx with a text/plain MIME type")
	}
	if code := gateway.CodeOf(err); code != gateway.CodeUnsupportedFileType {
		t.Errorf("error code = %q, want %q", code, gateway.CodeUnsupportedFileType)
	}
}

func TestMIMEForName(t *testing.T) {
	t.Parallel()

	if got := MIMEForName("report.pdf"); got != "application/pdf" {
		t.Errorf("MIMEForName(report.pdf) = %q", got)
	}
	if got := MIMEForName("report.txt"); got != "" {
		t.Errorf("MIMEForName(report.txt) = %q, want empty", got)
	}
}

func TestPreviewTextRejectsNonPDF(t *testing.T) {
	t.Parallel()

	_, err := PreviewText("notes.docx", 100)
	if err == nil {
		t.Fatal("PreviewText accepted a docx path")
	}
	if !strings.Contains(err.Error(), "only PDF") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"under limit", "short", 10, "short"},
		{"at limit", "exact", 5, "exact"},
		{"over limit", "abcdefghij", 4, "abcd…"},
		{"zero limit keeps all", "anything", 0, "anything"},
		{"multibyte runes", "单选题判断题", 3, "单选题…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := clip(tt.text, tt.limit); got != tt.want {
				t.Errorf("clip(%q, %d) = %q, want %q", tt.text, tt.limit, got, tt.want)
			}
		})
	}
}
