package support

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/digkill/PresetStore/internal/config"
)

const (
	// FallbackBusy is returned whenever the upstream call fails.
	FallbackBusy = "Maaf, layanan support sedang sibuk. Coba lagi nanti."
	// FallbackEmpty is returned when the upstream answers without any text.
	FallbackEmpty = "Maaf, saya tidak bisa menjawab saat ini."

	maxMessageLength = 2000
)

const systemInstruction = `You are a helpful customer support agent for "AM Premium Store".
We sell Alight Motion Premium subscriptions.
Key Info:
- Delivery is instant via email.
- Payment is real-time.
- We support XML imports and No Watermark.
- If payment fails, tell them to check their internet.
- Keep answers short, friendly, and use Indonesian language (Bahasa Indonesia).`

// Client answers customer questions through the Gemini generateContent API. It never
// returns an error: every failure degrades to a fixed apology.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:  cfg.SupportAPIKey,
		baseURL: strings.TrimRight(cfg.SupportBaseURL, "/"),
		model:   cfg.SupportModel,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Reply returns the support agent's answer to text.
func (c *Client) Reply(ctx context.Context, text string) string {
	answer, err := c.generate(ctx, text)
	if err != nil {
		c.log.Warn("support reply failed", "err", err)
		return FallbackBusy
	}
	if answer == "" {
		return FallbackEmpty
	}
	return answer
}

func (c *Client) generate(ctx context.Context, text string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("support api key is not configured")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	text = clampMessage(text, maxMessageLength)

	body, err := buildRequest(text)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post generateContent: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("support upstream error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}
	if !gjson.ValidBytes(rawBody) {
		return "", fmt.Errorf("decode response: invalid json (body=%s)", truncateBody(rawBody))
	}
	return extractText(rawBody), nil
}

// clampMessage cuts text to at most limit bytes without splitting a rune.
func clampMessage(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func buildRequest(text string) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	body, err = sjson.SetBytes(body, "system_instruction.parts.0.text", systemInstruction)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	body, err = sjson.SetBytes(body, "contents.0.role", "user")
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	body, err = sjson.SetBytes(body, "contents.0.parts.0.text", text)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return body, nil
}

// extractText joins the text parts of the first candidate.
func extractText(body []byte) string {
	var parts []string
	gjson.GetBytes(body, "candidates.0.content.parts").ForEach(func(_, part gjson.Result) bool {
		if t := part.Get("text"); t.Exists() {
			parts = append(parts, t.String())
		}
		return true
	})
	return strings.TrimSpace(strings.Join(parts, ""))
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
