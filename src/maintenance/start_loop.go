// Package maintenance runs the relay's periodic housekeeping: expiring old
// delivery failures and retrying a test notification that is still pending.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hbrelay/src/handler"
	"hbrelay/src/settings"

	logger "github.com/sirupsen/logrus"
)

type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Loop struct {
	Relay  *handler.Relay // nil disables test notification retries
	Purger Purger
	Config Config
	Now    func() time.Time
}

func NewLoop(rl *handler.Relay, purger Purger) *Loop {
	return &Loop{Relay: rl, Purger: purger, Config: GetConfig()}
}

func (l *Loop) now() time.Time {
	if l.Now == nil {
		return time.Now().UTC()
	}
	return l.Now().UTC()
}

// Purge removes failures older than the retention and returns how many went.
func (l *Loop) Purge(ctx context.Context) (int64, error) {
	if l.Config.Retention <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", l.Config.Retention)
	}

	cutoff := l.now().Add(-l.Config.Retention)
	n, err := l.Purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge failures: %w", err)
	}

	logger.WithField("cutoff", cutoff).WithField("removed", n).Info("[maintenance] delivery failures purged")
	return n, nil
}

// RetryTestNotification sends a pending test notification. It is a no-op
// when none is pending.
func (l *Loop) RetryTestNotification(ctx context.Context) error {
	if l.Relay == nil || !l.Config.RetryTestNotification {
		return nil
	}

	policy, err := settings.LoadPolicy(ctx, l.Relay.Store)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	if !policy.SendTestNotification || !policy.Enabled {
		return nil
	}

	p := l.Relay.NewPipeline(ctx, handler.RequestOptions{})
	if p.Policy().SendTestNotification {
		return errors.New("test notification still pending")
	}
	return nil
}

// RunOnce does one round of housekeeping. Every task runs even if an
// earlier one failed.
func (l *Loop) RunOnce(ctx context.Context) error {
	var errs []error
	if l.Purger != nil {
		if _, err := l.Purge(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := l.RetryTestNotification(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// StartLoop runs RunOnce on every tick until ctx is done.
func (l *Loop) StartLoop(ctx context.Context) error {
	if l.Config.LoopPeriod <= 0 {
		return fmt.Errorf("loop period must be positive, got %s", l.Config.LoopPeriod)
	}

	ticker := time.NewTicker(l.Config.LoopPeriod) // Set up a ticker that fires periodically
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[maintenance] loop stopped")
			return nil

		case <-ticker.C:
			logger.Debug("[maintenance] loop tick")
			if err := l.RunOnce(ctx); err != nil {
				logger.WithError(err).Warn("[maintenance] housekeeping incomplete")
			}
		}
	}
}
