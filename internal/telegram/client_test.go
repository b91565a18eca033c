package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	restyClient := resty.New()
	restyClient.SetBaseURL(serverURL)

	c, err := NewClientWith("123456:test-token", restyClient)
	if err != nil {
		t.Fatalf("NewClientWith() error = %v", err)
	}
	return c
}

func TestClientSendSuccess(t *testing.T) {
	t.Parallel()

	var gotBody sendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("path = %s, want .../sendMessage", r.URL.Path)
		}
		if !strings.Contains(r.URL.Path, "bot123456:test-token") {
			t.Errorf("path = %s, want bot token segment", r.URL.Path)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	err := c.Send(context.Background(), "100200300", "<b>hello</b>")
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if gotBody.ChatID != "100200300" {
		t.Fatalf("request.chat_id = %q, want 100200300", gotBody.ChatID)
	}
	if gotBody.ParseMode != "HTML" {
		t.Fatalf("request.parse_mode = %q, want HTML", gotBody.ParseMode)
	}
	if !gotBody.DisableWebPagePreview {
		t.Fatal("request.disable_web_page_preview should be true")
	}
}

func TestClientSendAPIFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	err := c.Send(context.Background(), "100200300", "hello")
	if err == nil {
		t.Fatal("Send() error = nil, want failure on 400")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("Send() error = %v, want description included", err)
	}
}

func TestClientSendOKFalseBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	err := c.Send(context.Background(), "100200300", "hello")
	if err == nil {
		t.Fatal("Send() error = nil, want failure on ok=false")
	}
}

func TestClientSendValidation(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "http://127.0.0.1:0")

	if err := c.Send(context.Background(), "", "hello"); err == nil {
		t.Fatal("Send() with empty chat id should fail")
	}
	if err := c.Send(context.Background(), "100200300", ""); err == nil {
		t.Fatal("Send() with empty text should fail")
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("  "); err == nil {
		t.Fatal("NewClient() with blank token should fail")
	}
}
