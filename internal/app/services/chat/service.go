package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/remnanthub/platform/internal/app/domain/chat"
	"github.com/remnanthub/platform/internal/app/metrics"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

const (
	// DefaultPageSize is used when a caller does not ask for a limit.
	DefaultPageSize = 50
	// MaxPageSize caps a single page.
	MaxPageSize = 200
)

// Broadcaster receives every stored message for realtime fan-out.
type Broadcaster interface {
	Broadcast(msg chat.Message)
}

// Service stores and lists community chat messages.
type Service struct {
	store       storage.ChatStore
	access      *access.Checker
	broadcaster Broadcaster
	log         *logger.Logger
}

// New constructs a chat service. broadcaster may be nil.
func New(store storage.ChatStore, checker *access.Checker, broadcaster Broadcaster, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("chat")
	}
	return &Service{store: store, access: checker, broadcaster: broadcaster, log: log}
}

// Send stores a message and returns the refreshed latest page.
func (s *Service) Send(ctx context.Context, senderID, communityID, body string) ([]chat.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.Required("body")
	}
	if utf8.RuneCountInString(body) > chat.MaxBodyLength {
		return nil, apperrors.Validation("message must be at most %d characters", chat.MaxBodyLength)
	}
	if err := s.access.RequireActiveMember(ctx, communityID, senderID); err != nil {
		return nil, err
	}

	msg, err := s.store.CreateMessage(ctx, chat.Message{
		CommunityID: communityID,
		SenderID:    senderID,
		Body:        body,
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordChatMessage()
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(msg)
	}
	s.log.WithField("message_id", msg.ID).
		WithField("community_id", communityID).
		Debug("chat message stored")

	return s.store.ListMessages(ctx, communityID, time.Time{}, DefaultPageSize)
}

// List returns up to limit messages after since, oldest first.
func (s *Service) List(ctx context.Context, viewerID, communityID string, since time.Time, limit int) ([]chat.Message, error) {
	if err := s.access.RequireActiveMember(ctx, communityID, viewerID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, communityID, since, clampLimit(limit))
}

// CanConnect reports whether userID may subscribe to a community's live feed.
func (s *Service) CanConnect(ctx context.Context, communityID, userID string) error {
	return s.access.RequireActiveMember(ctx, communityID, userID)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}
