package service

import (
	"context"
	"encoding/json"
	"time"

	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"
	"exam_center_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const notificationChannel = "exam_center:notifications"

// NotificationService persists notifications and announces them on a
// Redis channel for delivery workers. Dispatch is fire-and-forget:
// callers never wait on it and failures are only logged.
type NotificationService struct {
	Repo  *repository.NotificationRepository
	Redis *redis.Client
}

func NewNotificationService(repo *repository.NotificationRepository, rdb *redis.Client) *NotificationService {
	return &NotificationService{Repo: repo, Redis: rdb}
}

// Notify dispatches asynchronously and returns immediately.
func (s *NotificationService) Notify(userID uint, kind, title, body, link string) {
	go s.dispatch(userID, kind, title, body, link)
}

func (s *NotificationService) dispatch(userID uint, kind, title, body, link string) {
	n := &model.Notification{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
		Link:   link,
	}
	if err := s.Repo.Create(n); err != nil {
		logger.Log.Warn("failed to persist notification",
			zap.Uint("user_id", userID),
			zap.String("kind", kind),
			zap.Error(err))
		return
	}

	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		logger.Log.Warn("failed to encode notification", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Redis.Publish(ctx, notificationChannel, payload).Err(); err != nil {
		logger.Log.Warn("failed to publish notification", zap.Error(err))
	}
}

// AuditService records who did what to which entity. Same contract as
// notifications: asynchronous, failures swallowed.
type AuditService struct {
	Repo *repository.AuditRepository
}

func NewAuditService(repo *repository.AuditRepository) *AuditService {
	return &AuditService{Repo: repo}
}

func (s *AuditService) Record(actorID uint, action, entityType string, entityID uint, metadata any) {
	go func() {
		var raw json.RawMessage
		if metadata != nil {
			b, err := json.Marshal(metadata)
			if err != nil {
				logger.Log.Warn("failed to encode audit metadata", zap.Error(err))
			} else {
				raw = b
			}
		}
		entry := &model.AuditLog{
			TraceID:    uuid.NewString(),
			ActorID:    actorID,
			Action:     action,
			EntityType: entityType,
			EntityID:   entityID,
			Metadata:   raw,
		}
		if err := s.Repo.Create(entry); err != nil {
			logger.Log.Warn("failed to record audit entry",
				zap.String("action", action),
				zap.Error(err))
		}
	}()
}
