package support

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/digkill/PresetStore/internal/config"
	"github.com/digkill/PresetStore/pkg/logger"
)

func newTestClient(baseURL, apiKey string) *Client {
	return NewClient(config.Config{
		SupportAPIKey:  apiKey,
		SupportBaseURL: baseURL,
		SupportModel:   "gemini-test",
	}, logger.Discard())
}

func TestReplyReturnsAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "Cara top up?", gjson.GetBytes(body, "contents.0.parts.0.text").String())
		assert.Contains(t, gjson.GetBytes(body, "system_instruction.parts.0.text").String(), "AM Premium Store")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Pilih nominal, "},{"text":"lalu transfer."}]}}]}`))
	}))
	defer server.Close()

	answer := newTestClient(server.URL, "secret").Reply(context.Background(), "  Cara top up?  ")
	assert.Equal(t, "Pilih nominal, lalu transfer.", answer)
}

func TestReplyFallsBackOnUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	assert.Equal(t, FallbackBusy, newTestClient(server.URL, "secret").Reply(context.Background(), "halo"))
}

func TestReplyFallsBackOnEmptyAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	assert.Equal(t, FallbackEmpty, newTestClient(server.URL, "secret").Reply(context.Background(), "halo"))
}

func TestReplyWithoutKeyNeverCallsUpstream(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	assert.Equal(t, FallbackBusy, newTestClient(server.URL, "").Reply(context.Background(), "halo"))
	assert.False(t, called)
}

func TestClampMessageKeepsRunesWhole(t *testing.T) {
	text := "a" + strings.Repeat("é", 1500)

	clamped := clampMessage(text, maxMessageLength)
	assert.True(t, utf8.ValidString(clamped))
	assert.Len(t, clamped, maxMessageLength-1)
	assert.Equal(t, "short", clampMessage("short", maxMessageLength))
}

func TestReplySendsValidUTF8ForLongMessages(t *testing.T) {
	var sent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sent = gjson.GetBytes(body, "contents.0.parts.0.text").String()
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Oke"}]}}]}`))
	}))
	defer server.Close()

	answer := newTestClient(server.URL, "key").Reply(context.Background(), strings.Repeat("ü", 1500))
	assert.Equal(t, "Oke", answer)
	require.NotEmpty(t, sent)
	assert.True(t, utf8.ValidString(sent))
	assert.LessOrEqual(t, len(sent), maxMessageLength)
}
