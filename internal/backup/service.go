// Package backup assembles a full JSON export of the site data.
package backup

import (
	"context"
	"fmt"
	"time"

	contentdomain "portfolio-cms/backend/internal/content/domain"
	inboxdomain "portfolio-cms/backend/internal/inbox/domain"
	"portfolio-cms/backend/internal/logging"
	settingsdomain "portfolio-cms/backend/internal/settings/domain"
)

// ContentLister lists every content section.
type ContentLister interface {
	List(ctx context.Context) ([]*contentdomain.Section, error)
}

// SettingsSource returns the public settings and records the export time.
type SettingsSource interface {
	Public(ctx context.Context) (*settingsdomain.Settings, error)
	RecordBackup(ctx context.Context) error
}

// MessageLister lists every inbox message.
type MessageLister interface {
	List(ctx context.Context) ([]*inboxdomain.Message, error)
}

// Snapshot is the exported document. Admin credentials are never part of it.
type Snapshot struct {
	GeneratedAt     time.Time                `json:"generated_at"`
	Content         []*contentdomain.Section `json:"portfolio_content"`
	Settings        *settingsdomain.Settings `json:"settings"`
	ContactMessages []*inboxdomain.Message   `json:"contact_messages"`
}

// Service builds snapshots.
type Service struct {
	content  ContentLister
	settings SettingsSource
	inbox    MessageLister
	now      func() time.Time
}

// NewService returns a backup Service.
func NewService(content ContentLister, settings SettingsSource, inbox MessageLister) *Service {
	return &Service{content: content, settings: settings, inbox: inbox, now: func() time.Time { return time.Now().UTC() }}
}

// Snapshot reads all site data and then stamps last_backup. A failure to stamp is logged, not returned.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	sections, err := s.content.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup content: %w", err)
	}
	st, err := s.settings.Public(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup settings: %w", err)
	}
	msgs, err := s.inbox.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup inbox: %w", err)
	}
	if sections == nil {
		sections = []*contentdomain.Section{}
	}
	if msgs == nil {
		msgs = []*inboxdomain.Message{}
	}
	if err := s.settings.RecordBackup(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("record last_backup failed")
	}
	return &Snapshot{GeneratedAt: s.now(), Content: sections, Settings: st, ContactMessages: msgs}, nil
}
