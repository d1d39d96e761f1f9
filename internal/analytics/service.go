package analytics

import (
	"context"
	"time"

	"portfolio-cms/backend/internal/analytics/domain"
	"portfolio-cms/backend/internal/analytics/repository"
	contentdomain "portfolio-cms/backend/internal/content/domain"
)

const (
	recentLimit     = 20
	topCountryLimit = 5
	dailyWindow     = 7
)

// ContentReader loads a content section; the content repository implements it.
type ContentReader interface {
	Get(ctx context.Context, section string) (*contentdomain.Section, error)
}

// Service answers the admin analytics queries.
type Service struct {
	repo    repository.Repository
	content ContentReader
	now     func() time.Time
}

// NewService returns an analytics Service.
func NewService(repo repository.Repository, content ContentReader) *Service {
	return &Service{repo: repo, content: content, now: time.Now}
}

// Summary returns the recent visits, per-day counts for the last seven days (oldest first,
// today last), the top countries and the all-time totals.
func (s *Service) Summary(ctx context.Context) (*domain.Summary, error) {
	recent, err := s.repo.Recent(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []*domain.Visit{}
	}
	daily, err := s.daily(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopCountries(ctx, topCountryLimit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []domain.CountryCount{}
	}
	total, err := s.repo.Total(ctx)
	if err != nil {
		return nil, err
	}
	unique, err := s.repo.UniqueIPs(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Summary{
		Recent:       recent,
		Daily:        daily,
		TopCountries: top,
		Stats:        domain.Totals{TotalViews: total, UniqueVisitors: unique},
	}, nil
}

// daily counts whole calendar days in the server's local time zone.
func (s *Service) daily(ctx context.Context) ([]domain.DailyCount, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]domain.DailyCount, 0, dailyWindow)
	for i := dailyWindow - 1; i >= 0; i-- {
		start := today.AddDate(0, 0, -i)
		n, err := s.repo.CountRange(ctx, start, start.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		out = append(out, domain.DailyCount{Date: start.Format("Mon"), Count: n})
	}
	return out, nil
}

// DashboardStats returns total views and the number of portfolio and blog entries.
func (s *Service) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	total, err := s.repo.Total(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.itemCount(ctx, contentdomain.SectionPortfolio)
	if err != nil {
		return nil, err
	}
	blogs, err := s.itemCount(ctx, contentdomain.SectionBlog)
	if err != nil {
		return nil, err
	}
	return &domain.DashboardStats{TotalViews: total, TotalProjects: projects, TotalBlogs: blogs}, nil
}

func (s *Service) itemCount(ctx context.Context, section string) (int, error) {
	sec, err := s.content.Get(ctx, section)
	if err != nil {
		return 0, err
	}
	if sec == nil {
		return 0, nil
	}
	return contentdomain.ItemCount(sec.Content), nil
}
