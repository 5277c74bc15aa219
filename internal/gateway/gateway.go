package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"quizforge/internal/content"
)

const (
	// MinTextLength is the minimum number of characters the analysis
	// endpoint accepts; shorter input fails locally and never reaches the
	// network.
	MinTextLength = 10

	defaultTimeout   = 30 * time.Second
	templateCacheTTL = time.Hour
)

// JobStatus is the observed state of a server-side generation job.
type JobStatus string

const (
	JobGenerating JobStatus = "generating"
	JobCompleted  JobStatus = "completed"
)

// Client talks to the generation backend. All operations normalize their
// failures into TransferError values.
type Client struct {
	baseURL   string
	http      *http.Client
	log       *zap.Logger
	templates *cache.Cache
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mostly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger attaches a diagnostics logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		log:       zap.NewNop(),
		templates: cache.New(templateCacheTTL, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (e envelope) serverMessage(fallback string) string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return fallback
}

// Upload sends a local file as multipart form data and returns the storage
// path the server assigned to it.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader, declaredType string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", WrapError(CodeUploadRejected, "failed to build upload body", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", WrapError(CodeUploadRejected, "failed to read file", err)
	}
	if err := writer.WriteField("type", declaredType); err != nil {
		return "", WrapError(CodeUploadRejected, "failed to build upload body", err)
	}
	if err := writer.Close(); err != nil {
		return "", WrapError(CodeUploadRejected, "failed to build upload body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return "", WrapError(CodeUploadRejected, "", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var parsed struct {
		envelope
		Data struct {
			FilePath string `json:"filePath"`
		} `json:"data"`
	}
	if err := c.roundTrip(req, &parsed, CodeUploadRejected); err != nil {
		return "", err
	}
	if !parsed.Success {
		return "", NewError(CodeUploadRejected, parsed.serverMessage("upload rejected by server"))
	}
	c.log.Info("file uploaded", zap.String("file", filepath.Base(filename)), zap.String("path", parsed.Data.FilePath))
	return parsed.Data.FilePath, nil
}

// Parse asks the server to extract plain text from a previously uploaded
// document.
func (c *Client) Parse(ctx context.Context, fileType, filePath string) (string, error) {
	payload := map[string]string{"fileType": fileType, "filePath": filePath}
	var parsed struct {
		envelope
		Data struct {
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, "/api/parse", payload, &parsed, CodeParseFailed); err != nil {
		return "", err
	}
	if !parsed.Success {
		return "", NewError(CodeParseFailed, parsed.serverMessage("document parse failed"))
	}
	return parsed.Data.Text, nil
}

// itemPayload is the union of the two item variants on the wire.
type itemPayload struct {
	Question     string   `json:"question"`
	QuestionType string   `json:"questionType"`
	Options      []string `json:"options"`
	Answer       string   `json:"answer"`
	Explanation  string   `json:"explanation"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
}

// Analyze submits text for content analysis. Input shorter than
// MinTextLength fails locally with CodeInputTooShort before any network
// traffic.
func (c *Client) Analyze(ctx context.Context, text string) (*content.Analysis, error) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextLength {
		return nil, NewError(CodeInputTooShort, fmt.Sprintf("text must be at least %d characters", MinTextLength))
	}

	var parsed struct {
		envelope
		Type  string        `json:"type"`
		Title string        `json:"title"`
		Items []itemPayload `json:"items"`
		Data  struct {
			FileID string `json:"fileId"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, "/api/analyze", map[string]string{"text": text}, &parsed, CodeAnalyzeFailed); err != nil {
		return nil, err
	}
	if !parsed.Success {
		return nil, NewError(CodeAnalyzeFailed, parsed.serverMessage("content analysis failed"))
	}

	analysis := &content.Analysis{
		Kind:   content.Kind(parsed.Type),
		Title:  parsed.Title,
		FileID: parsed.Data.FileID,
	}
	for _, item := range parsed.Items {
		if analysis.Kind == content.KindQuestion {
			analysis.Questions = append(analysis.Questions, content.Question{
				Prompt:       item.Question,
				QuestionType: item.QuestionType,
				Options:      item.Options,
				Answer:       item.Answer,
				Explanation:  item.Explanation,
			})
			continue
		}
		analysis.Notes = append(analysis.Notes, content.Note{
			Title:   item.Title,
			Content: item.Content,
		})
	}
	c.log.Info("analysis complete",
		zap.String("type", string(analysis.Kind)),
		zap.Int("items", analysis.Len()),
		zap.String("fileId", analysis.FileID))
	return analysis, nil
}

// FetchTemplate returns the raw template body for name. Templates rarely
// change server-side, so successful fetches are cached for an hour.
func (c *Client) FetchTemplate(ctx context.Context, name string) (string, error) {
	if cached, ok := c.templates.Get(name); ok {
		return cached.(string), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/templates/"+name, nil)
	if err != nil {
		return "", WrapError(CodeTemplateUnavailable, "", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", WrapError(CodeTemplateUnavailable, "template request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", WrapError(CodeTemplateUnavailable, "template read failed", err)
	}
	if resp.StatusCode >= 400 {
		return "", NewError(CodeTemplateUnavailable, fmt.Sprintf("template %q: %s", name, resp.Status))
	}

	template := string(body)
	c.templates.SetDefault(name, template)
	c.log.Debug("template fetched", zap.String("name", name), zap.Int("bytes", len(template)))
	return template, nil
}

// Generate submits the analysis for HTML generation and returns the job
// identifier used for status polling and download.
func (c *Client) Generate(ctx context.Context, analysis *content.Analysis) (string, error) {
	payload := map[string]any{
		"type":  analysis.Kind,
		"title": analysis.Title,
		"items": analysis.Items(),
	}
	var parsed struct {
		envelope
		Data struct {
			FileID   string `json:"fileId"`
			FileName string `json:"fileName"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, "/api/generate", payload, &parsed, CodeGenerateFailed); err != nil {
		return "", err
	}
	if !parsed.Success {
		return "", NewError(CodeGenerateFailed, parsed.serverMessage("generation failed"))
	}

	jobID := parsed.Data.FileID
	if jobID == "" {
		jobID = strings.TrimSuffix(parsed.Data.FileName, ".html")
	}
	if jobID == "" {
		return "", NewError(CodeGenerateFailed, "server did not return a file identifier")
	}
	c.log.Info("generation started", zap.String("job", jobID))
	return jobID, nil
}

// PollStatus reports the current status of a generation job. Failures come
// back as CodePollTransient; callers are expected to log and keep polling.
func (c *Client) PollStatus(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/generate/status/"+jobID, nil)
	if err != nil {
		return "", WrapError(CodePollTransient, "", err)
	}
	var parsed struct {
		Status string `json:"status"`
	}
	if err := c.roundTrip(req, &parsed, CodePollTransient); err != nil {
		return "", err
	}
	return JobStatus(parsed.Status), nil
}

// DownloadURL builds the target of a download action. A non-empty basePath
// replaces the API prefix entirely, matching the user override behavior of
// the download dialog.
func (c *Client) DownloadURL(fileID, basePath string) string {
	if strings.TrimSpace(basePath) != "" {
		return strings.TrimRight(basePath, "/") + "/" + fileID + ".html"
	}
	return c.baseURL + "/api/download/" + fileID + ".html"
}

// Download fetches the generated HTML file and writes it under destDir,
// returning the local path.
func (c *Client) Download(ctx context.Context, fileID, basePath, destDir string) (string, error) {
	url := c.DownloadURL(fileID, basePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", WrapError(CodeGenerateFailed, "", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", WrapError(CodeGenerateFailed, "download request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", NewError(CodeGenerateFailed, fmt.Sprintf("download failed: %s", resp.Status))
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", WrapError(CodeGenerateFailed, "failed to create download directory", err)
	}
	target := filepath.Join(destDir, fileID+".html")
	out, err := os.Create(target)
	if err != nil {
		return "", WrapError(CodeGenerateFailed, "failed to create file", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", WrapError(CodeGenerateFailed, "failed to write file", err)
	}
	c.log.Info("file downloaded", zap.String("job", fileID), zap.String("path", target))
	return target, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, code Code) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return WrapError(code, "failed to encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return WrapError(code, "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.roundTrip(req, out, code)
}

// roundTrip executes req and decodes the JSON body into out, folding
// transport errors, 4xx/5xx statuses, and malformed bodies into one code.
func (c *Client) roundTrip(req *http.Request, out any, code Code) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return WrapError(code, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return WrapError(code, "failed to read response", err)
	}
	if resp.StatusCode >= 400 {
		// The server reports failures inside the envelope as well; prefer
		// its message when the body still decodes.
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.Message != "" {
			return NewError(code, env.Message)
		}
		return NewError(code, fmt.Sprintf("server error: %s", resp.Status))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return WrapError(code, "malformed response body", err)
	}
	return nil
}
