// Package speech uploads finalized recordings to the speech server and decodes its replies.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/rbright/sayback/internal/recording"
	"github.com/rbright/sayback/internal/version"
)

const (
	defaultPath     = "/speech-to-text"
	errorBodyLimit  = 512
	replyBodyLimit  = 1 << 20
	cacheBustParam  = "t"
	requestIDHeader = "X-Request-ID"
)

// Config controls where and how recordings are submitted.
type Config struct {
	BaseURL string
	Path    string
	// Timeout bounds one submission; zero leaves the request unbounded.
	Timeout time.Duration
}

// Reply is the decoded server response for one submission.
type Reply struct {
	UserText  string
	AIText    string
	AudioURL  string
	RequestID string
	Latency   time.Duration
}

// HasAudio reports whether the server returned synthesized reply audio.
func (r Reply) HasAudio() bool {
	return r.AudioURL != ""
}

type replyPayload struct {
	UserText *string `json:"user_text"`
	AIText   *string `json:"ai_text"`
	AudioURL *string `json:"audio_url"`
}

// Client posts clips to the configured speech endpoint.
type Client struct {
	base     *url.URL
	endpoint string
	http     *http.Client
	now      func() time.Time
}

// NewClient validates cfg and constructs an upload client.
func NewClient(cfg Config) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = defaultPath
	}
	endpoint := base.ResolveReference(&url.URL{Path: path})

	return &Client{
		base:     base,
		endpoint: endpoint.String(),
		http:     &http.Client{Timeout: cfg.Timeout},
		now:      time.Now,
	}, nil
}

// Endpoint returns the absolute submission URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit uploads clip as a single multipart part and decodes the JSON reply.
func (c *Client) Submit(ctx context.Context, clip *recording.Clip) (Reply, error) {
	if clip == nil {
		return Reply{}, fmt.Errorf("submit: no recording")
	}

	audio, err := clip.EncodeWAV()
	if err != nil {
		return Reply{}, fmt.Errorf("encode recording: %w", err)
	}

	body, contentType, err := buildUpload(audio)
	if err != nil {
		return Reply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Reply{}, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(requestIDHeader, requestID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Reply{RequestID: requestID}, &NetworkError{URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return Reply{RequestID: requestID}, &ServerError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, replyBodyLimit))
	if err != nil {
		return Reply{RequestID: requestID}, &NetworkError{URL: c.endpoint, Err: fmt.Errorf("read response: %w", err)}
	}

	reply, err := c.decodeReply(raw, resp.StatusCode)
	if err != nil {
		return Reply{RequestID: requestID}, err
	}
	reply.RequestID = requestID
	reply.Latency = time.Since(started)
	return reply, nil
}

// Ping issues a GET against the server base URL.
func (c *Client) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyLimit))
	return resp.StatusCode, nil
}

func (c *Client) decodeReply(raw []byte, status int) (Reply, error) {
	var payload replyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Reply{}, &ServerError{StatusCode: status, Reason: fmt.Sprintf("decode json: %v", err)}
	}
	if payload.UserText == nil {
		return Reply{}, &ServerError{StatusCode: status, Reason: "missing user_text"}
	}
	if payload.AIText == nil {
		return Reply{}, &ServerError{StatusCode: status, Reason: "missing ai_text"}
	}

	reply := Reply{UserText: *payload.UserText, AIText: *payload.AIText}
	if payload.AudioURL != nil && strings.TrimSpace(*payload.AudioURL) != "" {
		audioURL, err := c.resolveAudioURL(strings.TrimSpace(*payload.AudioURL))
		if err != nil {
			return Reply{}, &ServerError{StatusCode: status, Reason: err.Error()}
		}
		reply.AudioURL = audioURL
	}
	return reply, nil
}

// resolveAudioURL makes server-relative audio paths absolute and appends a cache-busting stamp.
func (c *Client) resolveAudioURL(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid audio_url %q: %w", raw, err)
	}
	resolved := c.base.ResolveReference(ref)
	query := resolved.Query()
	query.Set(cacheBustParam, strconv.FormatInt(c.now().UnixMilli(), 10))
	resolved.RawQuery = query.Encode()
	return resolved.String(), nil
}

// buildUpload writes the single-part multipart body.
func buildUpload(audio []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, recording.UploadField, recording.UploadFilename))
	header.Set("Content-Type", recording.ContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("server url must not be empty")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", raw, err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: missing host", raw)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base, nil
}
