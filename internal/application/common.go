package application

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
	"github.com/oksasatya/otomasyon-magazasi/pkg/mailer"
)

// Mailer enqueues email jobs; *mailer.Queue implements it.
type Mailer interface {
	Enqueue(ctx context.Context, to string, data map[string]any) error
	EnqueueJob(ctx context.Context, job mailer.EmailJob) error
}

// Viewer identifies the caller of a read that depends on ownership.
type Viewer struct {
	UserID string
	Role   string
}

func (v Viewer) IsAdmin() bool { return v.Role == string(entity.RoleAdmin) }

// sendMail enqueues best-effort; a disabled queue is not an error.
func sendMail(ctx context.Context, m Mailer, logger *logrus.Logger, to string, data map[string]any) {
	if m == nil || to == "" {
		return
	}
	if err := m.Enqueue(ctx, to, data); err != nil && !errors.Is(err, mailer.ErrDisabled) {
		helpers.LogWarn(logger, "enqueue email failed", err, logrus.Fields{"to": to, "type": data["Type"]})
	}
}

// setSessionRole updates the cached role of a live session so role changes
// apply before the next token refresh.
func setSessionRole(ctx context.Context, rdb *redis.Client, logger *logrus.Logger, userID string, role entity.Role) {
	if rdb == nil {
		return
	}
	key := sessionKey(userID)
	n, err := rdb.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return
	}
	if err := rdb.HSet(ctx, key, "role", string(role), "updated_at", nowRFC3339()).Err(); err != nil {
		helpers.LogWarn(logger, "session role update failed", err, logrus.Fields{"user_id": userID})
	}
}
