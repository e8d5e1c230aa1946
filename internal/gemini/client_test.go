package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseDataURL(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantOK   bool
		wantMime string
		wantData string
	}{
		{"jpeg", "data:image/jpeg;base64,AAAA", true, "image/jpeg", "AAAA"},
		{"png with spaces", "  data:image/png;base64,QkJC ", true, "image/png", "QkJC"},
		{"bare base64", "AAAA", false, "", ""},
		{"no payload", "data:image/png;base64,", false, "", ""},
		{"not base64", "data:text/plain,hello", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDataURL(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if got.MimeType != tt.wantMime || got.DataBase64 != tt.wantData {
				t.Errorf("Expected %s/%s, got %s/%s", tt.wantMime, tt.wantData, got.MimeType, got.DataBase64)
			}
		})
	}
}

func TestDataURL(t *testing.T) {
	if got := DataURL("image/png", []byte("BBB")); got != "data:image/png;base64,QkJC" {
		t.Errorf("Expected data:image/png;base64,QkJC, got %s", got)
	}
}

func TestWithRetry(t *testing.T) {
	rateLimited := errors.New("Error 429, Message: Resource has been exhausted")

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"success first try", []error{nil}, 1, false},
		{"recovers after rate limit", []error{rateLimited, rateLimited, nil}, 3, false},
		{"gives up after max attempts", []error{rateLimited, rateLimited, rateLimited}, 3, true},
		{"other errors are not retried", []error{errors.New("invalid argument")}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := withRetry(context.Background(), discardLogger(), 3, time.Millisecond, func() (string, error) {
				err := tt.errs[calls]
				calls++
				if err != nil {
					return "", err
				}
				return "ok", nil
			})

			if calls != tt.wantCalls {
				t.Errorf("Expected %d calls, got %d", tt.wantCalls, calls)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && got != "ok" {
				t.Errorf("Expected ok, got %q", got)
			}
		})
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := withRetry(ctx, discardLogger(), 5, time.Hour, func() (int, error) {
		calls++
		cancel()
		return 0, errors.New("quota exceeded")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("Error 429"), true},
		{errors.New("Rate limit reached"), true},
		{errors.New("Quota exceeded for metric"), true},
		{errors.New("RESOURCE_EXHAUSTED"), true},
		{errors.New("Error 400 invalid argument"), false},
	}
	for _, tt := range tests {
		if got := isRateLimitError(tt.err); got != tt.want {
			t.Errorf("isRateLimitError(%v): expected %v, got %v", tt.err, tt.want, got)
		}
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil {
		t.Error("Expected an error for an empty api key")
	}
}

func TestGenerateText(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"  Seekor kucing "},{"text":"bermain."}]}}]}`)
	}))
	defer server.Close()

	client, err := New(context.Background(), Options{
		APIKey:     "test-key",
		BaseURL:    server.URL + "/",
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got, err := client.GenerateText(context.Background(), "describe a cat")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if got != "Seekor kucing bermain." {
		t.Errorf("Expected %q, got %q", "Seekor kucing bermain.", got)
	}
	if !strings.HasSuffix(gotPath, "models/"+DefaultTextModel+":generateContent") {
		t.Errorf("Expected a generateContent call on the text model, got %s", gotPath)
	}
}
