package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizforge/internal/content"
)

func TestAnalyzeRejectsShortTextLocally(t *testing.T) {
	t.Parallel()

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Analyze(context.Background(), "123456789") // 9 chars
	require.Error(t, err)
	assert.Equal(t, CodeInputTooShort, CodeOf(err))
	assert.Zero(t, hits, "short input must never reach the network")
}

func TestAnalyzeMinimumLengthReachesServer(t *testing.T) {
	t.Parallel()

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"success":true,"type":"question","title":"t","items":[],"data":{"fileId":"f1"}}`))
	}))
	defer server.Close()

	client := New(server.URL)
	analysis, err := client.Analyze(context.Background(), "1234567890") // exactly 10
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
	assert.Equal(t, "f1", analysis.FileID)
}

func TestAnalyzeDecodesQuestionItems(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze", r.URL.Path)
		w.Write([]byte(`{
			"success": true,
			"type": "question",
			"title": "数学测验",
			"items": [
				{"question":"1+1=?","questionType":"single_choice","options":["1","2","3"],"answer":"B","explanation":"basic"},
				{"question":"地球是圆的","questionType":"true_false","answer":"正确"}
			],
			"data": {"fileId":"abc123"}
		}`))
	}))
	defer server.Close()

	client := New(server.URL)
	analysis, err := client.Analyze(context.Background(), strings.Repeat("知识点内容 ", 5))
	require.NoError(t, err)

	assert.Equal(t, content.KindQuestion, analysis.Kind)
	assert.Equal(t, "数学测验", analysis.Title)
	require.Len(t, analysis.Questions, 2)
	assert.Equal(t, []string{"1", "2", "3"}, analysis.Questions[0].Options)
	assert.Empty(t, analysis.Questions[1].Options)
	assert.Equal(t, "abc123", analysis.FileID)
}

func TestAnalyzeServerFailureCarriesMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"内容分析失败"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Analyze(context.Background(), strings.Repeat("x", 20))
	require.Error(t, err)
	assert.Equal(t, CodeAnalyzeFailed, CodeOf(err))
	assert.Contains(t, err.Error(), "内容分析失败")
}

func TestUploadSendsMultipartAndReturnsPath(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "word", r.FormValue("type"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "notes.docx", header.Filename)
		w.Write([]byte(`{"success":true,"data":{"filePath":"/uploads/notes.docx"}}`))
	}))
	defer server.Close()

	client := New(server.URL)
	path, err := client.Upload(context.Background(), "notes.docx", strings.NewReader("doc bytes"), "word")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/notes.docx", path)
}

func TestUploadRejectedByServer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"文件过大"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Upload(context.Background(), "notes.docx", strings.NewReader("x"), "word")
	require.Error(t, err)
	assert.Equal(t, CodeUploadRejected, CodeOf(err))
	assert.Contains(t, err.Error(), "文件过大")
}

func TestParseReturnsText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/parse", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{"text":"extracted text"}}`))
	}))
	defer server.Close()

	client := New(server.URL)
	text, err := client.Parse(context.Background(), "word", "/uploads/notes.docx")
	require.NoError(t, err)
	assert.Equal(t, "extracted text", text)
}

func TestFetchTemplateCachesBody(t *testing.T) {
	t.Parallel()

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/api/templates/questions", r.URL.Path)
		w.Write([]byte("<html>{{#each items}}{{/each}}</html>"))
	}))
	defer server.Close()

	client := New(server.URL)
	first, err := client.FetchTemplate(context.Background(), "questions")
	require.NoError(t, err)
	second, err := client.FetchTemplate(context.Background(), "questions")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, hits, "second fetch must hit the cache")
}

func TestFetchTemplateUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such template", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.FetchTemplate(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, CodeTemplateUnavailable, CodeOf(err))
}

func TestGenerateReturnsJobID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"fileId form", `{"success":true,"data":{"fileId":"abc123"}}`, "abc123"},
		{"fileName form", `{"success":true,"data":{"fileName":"abc123.html"}}`, "abc123"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/generate", r.URL.Path)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := New(server.URL)
			jobID, err := client.Generate(context.Background(), &content.Analysis{
				Kind:  content.KindQuestion,
				Title: "t",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, jobID)
		})
	}
}

func TestPollStatusNormalizesFailuresAsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.PollStatus(context.Background(), "abc123")
	require.Error(t, err)
	assert.Equal(t, CodePollTransient, CodeOf(err))
}

func TestPollStatusReadsStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate/status/abc123", r.URL.Path)
		w.Write([]byte(`{"status":"completed"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	status, err := client.PollStatus(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, status)
}

func TestDownloadURL(t *testing.T) {
	t.Parallel()

	client := New("http://127.0.0.1:8080")
	assert.Equal(t, "http://127.0.0.1:8080/api/download/abc123.html", client.DownloadURL("abc123", ""))
	assert.Equal(t, "http://mirror.local/files/abc123.html", client.DownloadURL("abc123", "http://mirror.local/files/"))
}

func TestDownloadWritesFile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/download/abc123.html", r.URL.Path)
		w.Write([]byte("<html>quiz</html>"))
	}))
	defer server.Close()

	client := New(server.URL)
	dir := t.TempDir()
	path, err := client.Download(context.Background(), "abc123", "", dir)
	require.NoError(t, err)
	assert.Contains(t, path, "abc123.html")
}
