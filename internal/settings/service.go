// Package settings serves the site settings and the admin view that adds credential status.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	admindomain "portfolio-cms/backend/internal/admin/domain"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/settings/domain"
	"portfolio-cms/backend/internal/settings/repository"
)

// CredentialReader reads the admin credential for the admin settings view.
type CredentialReader interface {
	Get(ctx context.Context) (*admindomain.Credential, error)
}

// AdminView is the settings document shown in the admin dashboard. It never carries the
// password hash or TOTP secret.
type AdminView struct {
	*domain.Settings
	Mobile     string `json:"mobile"`
	MFAEnabled bool   `json:"mfa_enabled"`
}

// Service reads and updates site settings.
type Service struct {
	repo  repository.Repository
	creds CredentialReader
	now   func() time.Time
}

// NewService returns a settings Service.
func NewService(repo repository.Repository, creds CredentialReader) *Service {
	return &Service{repo: repo, creds: creds, now: func() time.Time { return time.Now().UTC() }}
}

// Public returns the settings safe for anonymous visitors.
func (s *Service) Public(ctx context.Context) (*domain.Settings, error) {
	values, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	out, skipped := domain.Decode(values)
	if len(skipped) > 0 {
		logging.Ctx(ctx).Warn().Strs("keys", skipped).Msg("ignoring undecodable settings")
	}
	return out, nil
}

// Admin returns the settings plus the admin mobile and MFA status.
func (s *Service) Admin(ctx context.Context) (*AdminView, error) {
	pub, err := s.Public(ctx)
	if err != nil {
		return nil, err
	}
	cred, err := s.creds.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, admindomain.ErrNotInitialized
	}
	return &AdminView{Settings: pub, Mobile: cred.Mobile, MFAEnabled: cred.MFAEnabled()}, nil
}

// Update applies a partial update after ValidatePatch.
func (s *Service) Update(ctx context.Context, patch map[string]json.RawMessage) error {
	if err := domain.ValidatePatch(patch); err != nil {
		return err
	}
	values := make(map[string][]byte, len(patch))
	for k, v := range patch {
		values[k] = v
	}
	return s.repo.Set(ctx, values)
}

// RecordBackup stores the time of the latest backup export.
func (s *Service) RecordBackup(ctx context.Context) error {
	raw, err := json.Marshal(s.now())
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, map[string][]byte{domain.KeyLastBackup: raw})
}

// Seed installs any missing default settings and returns the keys it added.
func Seed(ctx context.Context, repo repository.Repository) ([]string, error) {
	var added []string
	for k, v := range domain.Defaults() {
		ok, err := repo.SetIfMissing(ctx, k, v)
		if err != nil {
			return added, fmt.Errorf("seed setting %s: %w", k, err)
		}
		if ok {
			added = append(added, k)
		}
	}
	return added, nil
}
