package groq

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

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "meta-llama/llama-4-scout-17b-16e-instruct"

	temperature = 0.2
	maxTokens   = 512
)

var ErrNoCompletion = errors.New("no completion returned")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the Groq chat-completions API. It extracts structured
// fields from receipt images and picks categories for free-text
// descriptions.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *log.Logger
}

func NewClient(cfg Config, logger *log.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 25 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.WithComponent(log.ComponentScan),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const billSystemPrompt = `You are a receipt and bill analyzer. Extract the following fields from the document image and reply with a single JSON object, nothing else:
{"amount": <total amount as number>, "currency": "<ISO currency code>", "date": "<YYYY-MM-DD>", "merchant": "<merchant name>", "description": "<short description>", "category_name": "<spending category>", "transaction_type": "expense"}
Use null for fields you cannot determine.`

// ExtractBill sends the receipt image through the vision model and parses
// the structured result out of the completion text.
func (c *Client) ExtractBill(ctx context.Context, image, imageBase64 string) (*core.ScanResult, error) {
	url := image
	if url == "" {
		url = dataURL(imageBase64)
	}

	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: billSystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: "Extract the bill details from this image."},
				{Type: "image_url", ImageURL: &imageURL{URL: url}},
			}},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseBillResult(raw)
}

// SuggestCategory asks the model to pick one of the given category names for
// a transaction description. The reply is matched case-insensitively against
// the candidates; an unmatched reply is returned as-is so the caller can
// create the category.
func (c *Client) SuggestCategory(ctx context.Context, description, merchant string, categories []string) (string, error) {
	prompt := fmt.Sprintf(
		"Pick the best spending category for this transaction.\nDescription: %s\nMerchant: %s\nCandidates: %s\nReply with a single JSON object: {\"category_name\": \"<name>\"}",
		description, merchant, strings.Join(categories, ", "))

	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You categorize personal finance transactions. Reply with JSON only."},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := c.complete(ctx, req)
	if err != nil {
		return "", err
	}

	var reply struct {
		CategoryName string `json:"category_name"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &reply); err != nil {
		return "", fmt.Errorf("parse category reply: %w", err)
	}
	for _, name := range categories {
		if strings.EqualFold(name, reply.CategoryName) {
			return name, nil
		}
	}
	return reply.CategoryName, nil
}

func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call groq: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("groq: %s (status %d)", parsed.Error.Message, resp.StatusCode)
		}
		return "", fmt.Errorf("groq: unexpected status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrNoCompletion
	}
	return parsed.Choices[0].Message.Content, nil
}

// billReply tolerates the model returning the amount as a number or string.
type billReply struct {
	Amount          *json.Number `json:"amount"`
	Currency        string       `json:"currency"`
	Date            string       `json:"date"`
	Merchant        string       `json:"merchant"`
	Description     string       `json:"description"`
	CategoryName    string       `json:"category_name"`
	TransactionType string       `json:"transaction_type"`
}

func parseBillResult(raw string) (*core.ScanResult, error) {
	extracted := extractJSON(raw)

	var reply billReply
	dec := json.NewDecoder(strings.NewReader(extracted))
	dec.UseNumber()
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("parse bill reply: %w", err)
	}

	result := &core.ScanResult{
		Currency:        reply.Currency,
		Date:            reply.Date,
		Merchant:        reply.Merchant,
		Description:     reply.Description,
		CategoryName:    reply.CategoryName,
		TransactionType: reply.TransactionType,
		Raw:             raw,
	}
	if reply.Amount != nil {
		amount, err := core.ParseMoney(reply.Amount.String())
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", reply.Amount.String(), err)
		}
		result.Amount = &amount
	}
	return result, nil
}

// extractJSON cuts the first top-level JSON object out of the completion
// text, which models like to wrap in prose or code fences.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func dataURL(b64 string) string {
	if strings.HasPrefix(b64, "data:") {
		return b64
	}
	return "data:image/jpeg;base64," + b64
}
