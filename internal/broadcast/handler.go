// Package broadcast sends one admin-authored SMS to a list of numbers.
package broadcast

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	admindomain "portfolio-cms/backend/internal/admin/domain"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/platform/httpx"
	"portfolio-cms/backend/internal/sms"
)

var errNoNumbers = errors.New("numbers must be a list or a comma-separated string")

// Numbers accepts either a JSON array of strings or one comma-separated string.
type Numbers []string

func (n *Numbers) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*n = normalize(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errNoNumbers
	}
	*n = normalize(strings.Split(s, ","))
	return nil
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

type request struct {
	Numbers Numbers `json:"numbers" validate:"required,min=1,max=100,dive,mobile"`
	Message string  `json:"message" validate:"required,max=1000"`
}

type response struct {
	Status      string     `json:"status"`
	Recipients  int        `json:"recipients"`
	APIResponse sms.Result `json:"api_response"`
}

// Handler serves POST /api/broadcast-message.
type Handler struct {
	sender sms.Sender
}

// NewHandler returns a broadcast Handler.
func NewHandler(sender sms.Sender) *Handler {
	return &Handler{sender: sender}
}

// Send delivers the message in one gateway call. Gateway failures are reported in api_response
// with a 200, the same as a successful send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	res := h.sender.Send(r.Context(), strings.Join(req.Numbers, ","), req.Message)
	logging.Ctx(r.Context()).Info().
		Int("recipients", len(req.Numbers)).
		Str("status", string(res.Status)).
		Strs("to", masked(req.Numbers)).
		Msg("broadcast processed")
	httpx.JSON(w, http.StatusOK, response{Status: "processed", Recipients: len(req.Numbers), APIResponse: res})
}

func masked(numbers []string) []string {
	out := make([]string, len(numbers))
	for i, n := range numbers {
		out[i] = admindomain.MaskMobile(n)
	}
	return out
}
