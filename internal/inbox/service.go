// Package inbox stores contact form submissions and notifies the admin by SMS.
package inbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	admindomain "portfolio-cms/backend/internal/admin/domain"
	"portfolio-cms/backend/internal/inbox/domain"
	"portfolio-cms/backend/internal/inbox/repository"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/sms"
)

// notifyPreviewRunes is how much of the message body goes into the admin SMS.
const notifyPreviewRunes = 50

// CredentialReader reads the admin credential to find the notification number.
type CredentialReader interface {
	Get(ctx context.Context) (*admindomain.Credential, error)
}

// Submission is a contact form post. All fields are required.
type Submission struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Phone   string `json:"phone" validate:"required,max=32"`
	Reason  string `json:"reason" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Service manages the contact inbox.
type Service struct {
	repo   repository.Repository
	creds  CredentialReader
	sender sms.Sender
	now    func() time.Time
}

// NewService returns an inbox Service.
func NewService(repo repository.Repository, creds CredentialReader, sender sms.Sender) *Service {
	return &Service{repo: repo, creds: creds, sender: sender, now: func() time.Time { return time.Now().UTC() }}
}

// Submit stores an unread message and texts the admin. The notification is best effort:
// its result is returned but never fails the submission.
func (s *Service) Submit(ctx context.Context, in Submission) (*domain.Message, sms.Result, error) {
	m := &domain.Message{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Reason:    strings.TrimSpace(in.Reason),
		Message:   in.Message,
		Status:    domain.StatusUnread,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, sms.Result{}, err
	}
	return m, s.notify(ctx, m), nil
}

func (s *Service) notify(ctx context.Context, m *domain.Message) sms.Result {
	cred, err := s.creds.Get(ctx)
	if err != nil || cred == nil {
		logging.Ctx(ctx).Warn().Err(err).Str("message_id", m.ID).Msg("no admin mobile for contact notification")
		return sms.Failed("admin mobile unavailable")
	}
	res := s.sender.Send(ctx, cred.Mobile, NotificationText(m))
	if !res.OK() {
		logging.Ctx(ctx).Warn().Str("message_id", m.ID).Str("reason", res.Reason).Msg("contact notification not delivered")
	}
	return res
}

// NotificationText renders the SMS sent to the admin for a new message.
func NotificationText(m *domain.Message) string {
	body := m.Message
	if r := []rune(body); len(r) > notifyPreviewRunes {
		body = string(r[:notifyPreviewRunes])
	}
	return fmt.Sprintf("Portfolio Msg (%s)\nFrom: %s\nEmail: %s\nPhone: %s\nMsg: %s...",
		m.Reason, m.Name, m.Email, m.Phone, body)
}

// List returns every message, newest first.
func (s *Service) List(ctx context.Context) ([]*domain.Message, error) {
	msgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return msgs, nil
}

// UpdateStatus sets a message's status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Delete removes a message.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
