package pipeline

import (
	"errors"
	"fmt"

	"hbrelay/src/model"
	"hbrelay/src/settings"

	logger "github.com/sirupsen/logrus"
)

const (
	testNotificationClass   = "HoneybadgerTestNotification"
	testNotificationMessage = "This is a test notification sent from the Honeybadger relay settings."
)

var ErrTestNotificationNotSent = errors.New("test notification was not delivered")

// Init runs the start-of-request work: a pending test notification is sent
// through the full pipeline. The flag is reset only after the backend
// confirmed the notice, so a failed attempt is retried by the next Init.
func (p *Pipeline) Init() error {
	// With reporting off the gate would filter it; keep it pending.
	if !p.policy.SendTestNotification || !p.policy.Enabled {
		return nil
	}

	res := p.handle(model.Signal{
		Level:   model.LevelError,
		Message: testNotificationMessage,
		Origin:  model.OriginUncaughtException,
		Class:   testNotificationClass,
	})
	if res.Outcome != OutcomeDelivered {
		err := fmt.Errorf("%w: outcome %s", ErrTestNotificationNotSent, res.Outcome)
		if res.Err != nil {
			err = fmt.Errorf("%w: %w", ErrTestNotificationNotSent, res.Err)
		}
		logger.WithError(err).Warn("[pipeline] test notification pending")
		return err
	}

	if err := p.commitReset(settings.KeyPHPSendTestNotification); err != nil {
		logger.WithError(err).Error("[pipeline] failed to reset test notification flag")
		return err
	}
	p.policy.SendTestNotification = false

	logger.WithField("notice_id", res.NoticeID).Info("[pipeline] test notification sent")
	return nil
}

func (p *Pipeline) commitReset(key string) (err error) {
	if p.store == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("settings store panicked: %v", r)
		}
	}()
	if err := p.store.Set(p.ctx, key, "false"); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}
