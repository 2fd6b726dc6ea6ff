package notifications

import "context"

type StoreAPI interface {
	CreateNotification(ctx context.Context, userID, ntype, title, message, relatedID string) error
	UserIDsByRole(ctx context.Context, role string) ([]string, error)
	ListNotifications(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}
