package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xeipuuv/gojsonschema"

	"finbot/internal/common/logger"
	"finbot/internal/common/metrics"
	"finbot/internal/models"
	"finbot/internal/textnorm"
)

var (
	ErrQuotaExhausted     = errors.New("REMOTE_QUOTA_EXHAUSTED")
	ErrMalformedReply     = errors.New("MALFORMED_REMOTE_REPLY")
	ErrNoUsableCredential = errors.New("NO_USABLE_CREDENTIAL")
	ErrRemoteUnavailable  = errors.New("REMOTE_UNAVAILABLE")
)

type Config struct {
	BaseURL       string
	Model         string
	Timeout       time.Duration
	QuotaKeywords []string
}

// replySchema validates the model's JSON before any field is trusted.
const replySchema = `{
	"type": "object",
	"required": ["section", "action"],
	"properties": {
		"section": {"type": "string", "enum": ["finance", "planning", "settings", "help", "admin", "main", "none"]},
		"action": {"type": "string", "minLength": 1},
		"amount": {"type": "number", "minimum": 0},
		"type": {"type": "string", "enum": ["income", "expense"]},
		"category": {"type": "string"},
		"date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
		"time": {"type": "string", "pattern": "^\\d{1,2}:\\d{2}$"},
		"note": {"type": "string"},
		"currency": {"type": "string", "enum": ["toman", "dollar"]},
		"card_hint": {"type": "string", "pattern": "^\\d{4}$"},
		"balance": {"type": "number", "minimum": 0},
		"party": {"type": "string"},
		"title": {"type": "string"},
		"range_start": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
		"range_end": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}
	}
}`

// Client calls the Gemini generateContent API with credential rotation.
type Client struct {
	config *Config
	pool   *CredentialPool
	client *http.Client
	schema *gojsonschema.Schema
	logger logger.Logger
}

func NewClient(config *Config, pool *CredentialPool, log logger.Logger) (*Client, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(replySchema))
	if err != nil {
		return nil, fmt.Errorf("compile reply schema: %w", err)
	}

	return &Client{
		config: config,
		pool:   pool,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		schema: schema,
		logger: log.With(map[string]interface{}{
			"component": "gemini",
		}),
	}, nil
}

// Resolve turns free-form text into a structured intent. A quota failure
// retires the credential, rotates, and retries exactly once; every other
// failure returns immediately so the caller can fall back to rules.
func (c *Client) Resolve(ctx context.Context, text string, now time.Time) (*models.Intent, error) {
	cred, ok := c.pool.Current()
	if !ok {
		metrics.RemoteFailures.WithLabelValues("no_credential").Inc()
		return nil, ErrNoUsableCredential
	}

	intent, err := c.invoke(ctx, cred.Key, text, now)
	if err == nil {
		return intent, nil
	}

	if !errors.Is(err, ErrQuotaExhausted) {
		c.classifyFailure(err)
		return nil, err
	}

	c.logger.Warn("credential exhausted, rotating", map[string]interface{}{
		"credentialIndex":   cred.Index,
		"failedCredentials": c.pool.FailedCount(),
		"poolSize":          c.pool.Size(),
	})
	metrics.RemoteFailures.WithLabelValues("quota").Inc()
	metrics.CredentialRotations.Inc()

	next, ok := c.pool.Rotate(cred.Index)
	if !ok {
		return nil, ErrNoUsableCredential
	}

	intent, err = c.invoke(ctx, next.Key, text, now)
	if err != nil {
		if errors.Is(err, ErrQuotaExhausted) {
			c.pool.MarkFailed(next.Index)
			if c.pool.Exhausted() {
				c.logger.Error("credential pool exhausted, remote understanding disabled", map[string]interface{}{
					"poolSize": c.pool.Size(),
				})
			}
		}
		c.classifyFailure(err)
		return nil, err
	}
	return intent, nil
}

func (c *Client) classifyFailure(err error) {
	switch {
	case errors.Is(err, ErrMalformedReply):
		metrics.RemoteFailures.WithLabelValues("malformed").Inc()
	case errors.Is(err, ErrQuotaExhausted):
		metrics.RemoteFailures.WithLabelValues("quota").Inc()
	default:
		metrics.RemoteFailures.WithLabelValues("transport").Inc()
	}
}

// ==========================
// Wire Types
// ==========================

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type intentReply struct {
	Section    string   `json:"section"`
	Action     string   `json:"action"`
	Amount     *float64 `json:"amount"`
	Type       *string  `json:"type"`
	Category   *string  `json:"category"`
	Date       *string  `json:"date"`
	Time       *string  `json:"time"`
	Note       *string  `json:"note"`
	Currency   *string  `json:"currency"`
	CardHint   *string  `json:"card_hint"`
	Balance    *float64 `json:"balance"`
	Party      *string  `json:"party"`
	Title      *string  `json:"title"`
	RangeStart *string  `json:"range_start"`
	RangeEnd   *string  `json:"range_end"`
}

// ==========================
// HTTP Call
// ==========================

func (c *Client) invoke(ctx context.Context, key, text string, now time.Time) (*models.Intent, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPrompt(text, now)}}},
		},
		GenerationConfig: generationConfig{
			Temperature:      0.1,
			ResponseMimeType: "application/json",
		},
	}

	body, _ := json.Marshal(reqBody)
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.config.BaseURL, c.config.Model, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if c.isQuotaMessage(err.Error()) {
			return nil, fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRemoteUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status 429", ErrQuotaExhausted)
	}
	if resp.StatusCode != http.StatusOK {
		if c.isQuotaMessage(string(raw)) {
			return nil, fmt.Errorf("%w: status %d", ErrQuotaExhausted, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrMalformedReply, err)
	}
	if apiResp.Error != nil {
		if c.isQuotaMessage(apiResp.Error.Message) || c.isQuotaMessage(apiResp.Error.Status) {
			return nil, fmt.Errorf("%w: %s", ErrQuotaExhausted, apiResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrRemoteUnavailable, apiResp.Error.Message)
	}

	candidate := extractCandidateText(&apiResp)
	if candidate == "" {
		return nil, fmt.Errorf("%w: empty candidate", ErrMalformedReply)
	}

	return c.parseReply(candidate)
}

// isQuotaMessage checks the configured quota keyword list.
func (c *Client) isQuotaMessage(msg string) bool {
	lowered := strings.ToLower(msg)
	for _, kw := range c.config.QuotaKeywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func extractCandidateText(resp *geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

// ==========================
// Reply Parsing
// ==========================

// stripFences removes a surrounding markdown code fence, with or without
// a language tag, from the model's reply.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// drop the language tag line (```json)
		firstLine := strings.TrimSpace(trimmed[:idx])
		if firstLine == "json" || firstLine == "JSON" || firstLine == "" {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func (c *Client) parseReply(candidate string) (*models.Intent, error) {
	payload := textnorm.Digits(stripFences(candidate))

	result, err := c.schema.Validate(gojsonschema.NewStringLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedReply, strings.Join(details, "; "))
	}

	var reply intentReply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	return replyToIntent(&reply), nil
}

func replyToIntent(reply *intentReply) *models.Intent {
	intent := models.NewIntent(models.Section(reply.Section), reply.Action)

	if reply.Amount != nil {
		amount := decimal.NewFromFloat(*reply.Amount)
		intent.Amount = &amount
	}
	if reply.Type != nil {
		txType := models.TransactionType(*reply.Type)
		intent.Type = &txType
	}
	if reply.Currency != nil {
		currency := models.Currency(*reply.Currency)
		intent.Currency = &currency
	}
	if reply.Balance != nil {
		balance := decimal.NewFromFloat(*reply.Balance)
		intent.Balance = &balance
	}

	intent.Category = reply.Category
	intent.Date = reply.Date
	intent.Time = reply.Time
	intent.Note = reply.Note
	intent.CardHint = reply.CardHint
	intent.Party = reply.Party
	intent.Title = reply.Title
	intent.RangeStart = reply.RangeStart
	intent.RangeEnd = reply.RangeEnd

	return intent
}
