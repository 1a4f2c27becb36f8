package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
	"github.com/vineet-vishwakarma/Chat-App/internal/config"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.Config{TranslationURL: srv.URL, RapidAPIKey: "k", RapidAPIHost: "h"})
}

func TestTranslate_SendsUpstreamContract(t *testing.T) {
	var got upstreamRequest
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "k", r.Header.Get("x-rapidapi-key"))
		require.Equal(t, "h", r.Header.Get("x-rapidapi-host"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"trans":"hola"}`))
	})

	res, err := c.Translate(context.Background(), Request{SourceLanguage: "en", TargetLanguage: "es", Text: "hello"})
	require.NoError(t, err)
	require.Equal(t, "hola", res.Trans)
	require.Equal(t, upstreamRequest{From: "en", To: "es", HTML: "hello"}, got)
}

func TestTranslate_DetectsMissingSourceLanguage(t *testing.T) {
	var got upstreamRequest
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"trans":"hallo welt"}`))
	})

	res, err := c.Translate(context.Background(), Request{
		TargetLanguage: "de",
		Text:           "The quick brown fox jumps over the lazy dog while everyone watches quietly",
	})
	require.NoError(t, err)
	require.Equal(t, "en", got.From)
	require.Equal(t, "en", res.SourceLanguage)
}

func TestTranslate_UpstreamFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		},
		"empty trans": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"trans":""}`))
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			c := newClient(t, h)
			_, err := c.Translate(context.Background(), Request{SourceLanguage: "en", TargetLanguage: "es", Text: "hello"})
			require.Error(t, err)
			require.True(t, apperr.Is(err, apperr.KindTranslation))
			require.Equal(t, "Message Translation Failed", apperr.MessageOf(err))
			require.Equal(t, http.StatusInternalServerError, apperr.StatusOf(err))
		})
	}
}

func TestTranslate_RequiresTargetAndText(t *testing.T) {
	c := NewClient(config.Config{TranslationURL: "http://unused"})
	_, err := c.Translate(context.Background(), Request{Text: "hello"})
	require.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = c.Translate(context.Background(), Request{TargetLanguage: "es"})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestTranslate_Unconfigured(t *testing.T) {
	c := NewClient(config.Config{})
	_, err := c.Translate(context.Background(), Request{SourceLanguage: "en", TargetLanguage: "es", Text: "hello"})
	require.True(t, apperr.Is(err, apperr.KindTranslation))
}

func TestTranslate_ContextCancel(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Translate(ctx, Request{SourceLanguage: "en", TargetLanguage: "es", Text: "hello"})
	require.True(t, apperr.Is(err, apperr.KindTranslation))
}

func TestNewClient_Timeout(t *testing.T) {
	require.Zero(t, NewClient(config.Config{}).http.Timeout)
	require.Equal(t, 3*time.Second, NewClient(config.Config{TranslationTimeoutSeconds: 3}).http.Timeout)
}
