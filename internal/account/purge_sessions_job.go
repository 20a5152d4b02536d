package account

import (
	"context"
	"fmt"
	"time"

	"fxgate/internal/adapters"
	"fxgate/internal/metrics"

	"github.com/sirupsen/logrus"
)

// PurgeExpiredSessions deletes refresh sessions that expired before now.
func PurgeExpiredSessions(ctx context.Context, execID string, sessions adapters.SessionRepository, m *metrics.ExchangeMetrics, now time.Time) error {
	deleted, err := sessions.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	if deleted == 0 {
		logrus.Debugf("No expired sessions this time; execID: %s", execID)
		return nil
	}

	if m != nil {
		m.SessionsPurged.Add(float64(deleted))
	}
	logrus.Infof("%d expired sessions were purged; execID: %s", deleted, execID)
	return nil
}
