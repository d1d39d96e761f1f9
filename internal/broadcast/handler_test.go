package broadcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"portfolio-cms/backend/internal/sms"
)

type recordingSender struct {
	mu     sync.Mutex
	calls  []string
	result sms.Result
}

func (s *recordingSender) Send(ctx context.Context, to, text string) sms.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, to)
	return s.result
}

func TestNumbers_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want []string
		err  bool
	}{
		{"list", `["9800000000","9811111111"]`, []string{"9800000000", "9811111111"}, false},
		{"comma string", `"9800000000, 9811111111,"`, []string{"9800000000", "9811111111"}, false},
		{"dedupe", `["9800000000","9800000000"]`, []string{"9800000000"}, false},
		{"number", `9800000000`, nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var n Numbers
			err := json.Unmarshal([]byte(tc.in), &n)
			if tc.err {
				if err == nil {
					t.Error("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if strings.Join(n, ",") != strings.Join(tc.want, ",") {
				t.Errorf("Numbers = %v, want %v", n, tc.want)
			}
		})
	}
}

func TestSend(t *testing.T) {
	sender := &recordingSender{result: sms.Result{Status: sms.StatusSent, Response: map[string]any{"error": false}}}
	h := NewHandler(sender)
	rec := httptest.NewRecorder()
	h.Send(rec, httptest.NewRequest(http.MethodPost, "/api/broadcast-message",
		strings.NewReader(`{"numbers":"9800000000,9811111111","message":"Hello"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if len(sender.calls) != 1 || sender.calls[0] != "9800000000,9811111111" {
		t.Errorf("gateway calls = %v", sender.calls)
	}
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out["status"] != "processed" {
		t.Errorf("status = %v", out["status"])
	}
	api, _ := out["api_response"].(map[string]any)
	if api["status"] != "sent" {
		t.Errorf("api_response = %v", out["api_response"])
	}
}

func TestSend_GatewayFailureIsStillProcessed(t *testing.T) {
	h := NewHandler(&recordingSender{result: sms.Failed("timeout")})
	rec := httptest.NewRecorder()
	h.Send(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"numbers":["9800000000"],"message":"Hi"}`)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"failed"`) {
		t.Errorf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSend_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"no numbers", `{"message":"Hi"}`},
		{"empty list", `{"numbers":[],"message":"Hi"}`},
		{"blank string", `{"numbers":" , ","message":"Hi"}`},
		{"bad number", `{"numbers":["12345"],"message":"Hi"}`},
		{"no message", `{"numbers":["9800000000"]}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &recordingSender{}
			rec := httptest.NewRecorder()
			NewHandler(sender).Send(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(sender.calls) != 0 {
				t.Error("gateway should not be called")
			}
		})
	}
}
