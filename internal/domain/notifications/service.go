package notifications

import (
	"context"
	"log/slog"

	"hostel/internal/domain/outing"
)

// Service persists in-app notifications and fans role-addressed ones out to
// every user holding that role.
type Service struct {
	store StoreAPI
}

func New(store StoreAPI) *Service {
	return &Service{store: store}
}

var _ outing.Notifier = (*Service)(nil)

func (s *Service) Notify(ctx context.Context, userID, ntype, title, message, relatedID string) error {
	return s.store.CreateNotification(ctx, userID, ntype, title, message, relatedID)
}

func (s *Service) NotifyRole(ctx context.Context, role, ntype, title, message, relatedID string) error {
	userIDs, err := s.store.UserIDsByRole(ctx, role)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := s.store.CreateNotification(ctx, userID, ntype, title, message, relatedID); err != nil {
			slog.Warn("role notification insert failed", "userId", userID, "type", ntype, "err", err)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.store.MarkAllRead(ctx, userID)
}
