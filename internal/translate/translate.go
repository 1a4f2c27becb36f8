// Package translate calls the external RapidAPI translation endpoint used
// by the message translation route.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/rs/zerolog/log"
	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
	"github.com/vineet-vishwakarma/Chat-App/internal/config"
	"github.com/vineet-vishwakarma/Chat-App/internal/metrics"
)

const failedMessage = "Message Translation Failed"

// Translator is what the REST layer depends on.
type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}

type Request struct {
	SourceLanguage string
	TargetLanguage string
	Text           string
}

type Result struct {
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	Trans          string `json:"trans"`
}

type Client struct {
	url  string
	key  string
	host string
	http *http.Client
}

// NewClient builds a client from cfg. A zero TranslationTimeoutSeconds
// means requests are bounded only by the caller's context.
func NewClient(cfg config.Config) *Client {
	hc := &http.Client{}
	if cfg.TranslationTimeoutSeconds > 0 {
		hc.Timeout = time.Duration(cfg.TranslationTimeoutSeconds) * time.Second
	}
	return &Client{url: cfg.TranslationURL, key: cfg.RapidAPIKey, host: cfg.RapidAPIHost, http: hc}
}

type upstreamRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	HTML string `json:"html"`
}

type upstreamResponse struct {
	Trans string `json:"trans"`
}

// DetectLanguage returns the ISO 639-1 code of text, or "auto" when the
// guess is not reliable.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "auto"
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return "auto"
}

func (c *Client) Translate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.TargetLanguage) == "" || strings.TrimSpace(req.Text) == "" {
		return Result{}, apperr.Validation("targetLanguage and message are required", nil)
	}
	if req.SourceLanguage == "" {
		req.SourceLanguage = DetectLanguage(req.Text)
	}
	res, err := c.do(ctx, req)
	if err != nil {
		metrics.TranslationRequestsTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("from", req.SourceLanguage).Str("to", req.TargetLanguage).Msg("translation failed")
		return Result{}, apperr.Translation(failedMessage, err)
	}
	metrics.TranslationRequestsTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func (c *Client) do(ctx context.Context, req Request) (Result, error) {
	if c.url == "" {
		return Result{}, fmt.Errorf("TRANSLATION_URL is not configured")
	}
	body, err := json.Marshal(upstreamRequest{From: req.SourceLanguage, To: req.TargetLanguage, HTML: req.Text})
	if err != nil {
		return Result{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-rapidapi-key", c.key)
	httpReq.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var out upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode upstream response: %w", err)
	}
	if out.Trans == "" {
		return Result{}, fmt.Errorf("empty translation")
	}
	return Result{SourceLanguage: req.SourceLanguage, TargetLanguage: req.TargetLanguage, Trans: out.Trans}, nil
}
