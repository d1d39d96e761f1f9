package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"portfolio-cms/backend/internal/analytics/domain"
)

type stubService struct {
	summary *domain.Summary
	stats   *domain.DashboardStats
	err     error
}

func (s *stubService) Summary(context.Context) (*domain.Summary, error) { return s.summary, s.err }
func (s *stubService) DashboardStats(context.Context) (*domain.DashboardStats, error) {
	return s.stats, s.err
}

func TestHandler_Summary(t *testing.T) {
	h := NewHandler(&stubService{summary: &domain.Summary{
		Recent:       []*domain.Visit{},
		Daily:        []domain.DailyCount{{Date: "Mon", Count: 3}},
		TopCountries: []domain.CountryCount{{Country: "Nepal", Count: 3}},
		Stats:        domain.Totals{TotalViews: 3, UniqueVisitors: 1},
	}})
	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Daily        []map[string]any `json:"daily"`
		TopCountries []map[string]any `json:"top_countries"`
		Stats        map[string]int   `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TopCountries[0]["_id"] != "Nepal" || body.Daily[0]["date"] != "Mon" {
		t.Errorf("body = %s", rec.Body.String())
	}
	if body.Stats["unique_visitors"] != 1 {
		t.Errorf("stats = %v", body.Stats)
	}
}

func TestHandler_DashboardStats(t *testing.T) {
	h := NewHandler(&stubService{stats: &domain.DashboardStats{TotalViews: 9, TotalProjects: 4, TotalBlogs: 2}})
	rec := httptest.NewRecorder()
	h.DashboardStats(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard-stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got domain.DashboardStats
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got != (domain.DashboardStats{TotalViews: 9, TotalProjects: 4, TotalBlogs: 2}) {
		t.Errorf("stats = %+v", got)
	}
}

func TestHandler_Errors(t *testing.T) {
	h := NewHandler(&stubService{err: errors.New("db down")})
	for name, fn := range map[string]http.HandlerFunc{"summary": h.Summary, "stats": h.DashboardStats} {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s status = %d, want 500", name, rec.Code)
		}
	}
}
