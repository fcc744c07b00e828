package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/log"
)

func completionResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, log.New(log.DefaultConfig()))
}

func TestExtractBillParsesCompletion(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(completionResponse(
			"Here is the extraction:\n" +
				`{"amount": 42.90, "currency": "EUR", "date": "2026-03-01", "merchant": "Esselunga", "description": "Groceries", "category_name": "Groceries", "transaction_type": "expense"}`)))
	})

	result, err := client.ExtractBill(context.Background(), "https://example.com/r.jpg", "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotReq.Model != DefaultModel || gotReq.Temperature != 0.2 || gotReq.MaxTokens != 512 {
		t.Fatalf("unexpected request params: %+v", gotReq)
	}

	if result.Amount == nil || result.Amount.String() != "42.90" {
		t.Fatalf("amount = %v", result.Amount)
	}
	if result.Merchant != "Esselunga" || result.CategoryName != "Groceries" || result.TransactionType != "expense" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Raw == "" {
		t.Fatal("raw completion not kept")
	}
}

func TestExtractBillStringAmountAndNulls(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(
			`{"amount": "19.99", "currency": null, "date": null, "merchant": "Bar", "transaction_type": "expense"}`)))
	})

	result, err := client.ExtractBill(context.Background(), "https://example.com/r.jpg", "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Amount == nil || result.Amount.String() != "19.99" {
		t.Fatalf("amount = %v", result.Amount)
	}
	if result.Currency != "" || result.Date != "" {
		t.Fatalf("null fields should stay empty: %+v", result)
	}
}

func TestExtractBillBase64BecomesDataURL(t *testing.T) {
	var gotBody []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var buf struct {
			Messages []struct {
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		body := json.NewDecoder(r.Body)
		if err := body.Decode(&buf); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(buf.Messages) == 2 {
			gotBody = buf.Messages[1].Content
		}
		w.Write([]byte(completionResponse(`{"amount": 1}`)))
	})

	if _, err := client.ExtractBill(context.Background(), "", "aGVsbG8="); err != nil {
		t.Fatalf("extract: %v", err)
	}

	var parts []contentPart
	if err := json.Unmarshal(gotBody, &parts); err != nil {
		t.Fatalf("unmarshal content parts: %v", err)
	}
	if len(parts) != 2 || parts[1].ImageURL == nil {
		t.Fatalf("unexpected parts: %+v", parts)
	}
	if parts[1].ImageURL.URL != "data:image/jpeg;base64,aGVsbG8=" {
		t.Fatalf("image url = %q", parts[1].ImageURL.URL)
	}
}

func TestExtractBillAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
	})

	if _, err := client.ExtractBill(context.Background(), "https://example.com/r.jpg", ""); err == nil {
		t.Fatal("expected error from API failure")
	}
}

func TestSuggestCategoryMatchesCandidate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(`{"category_name": "groceries"}`)))
	})

	got, err := client.SuggestCategory(context.Background(), "weekly shop", "Coop", []string{"Groceries", "Transport"})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	// Case-insensitive match resolves to the stored category name.
	if got != "Groceries" {
		t.Fatalf("got %q, want Groceries", got)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"wrapped in prose", "Sure! {\"a\": 1} Hope that helps.", `{"a": 1}`},
		{"code fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no object", "no json here", "no json here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
