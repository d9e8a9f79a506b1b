package testnotify

import (
	"context"
	"fmt"

	"hbrelay/src/enricher"
	"hbrelay/src/pipeline"
	"hbrelay/src/settings"
	"hbrelay/src/sink"

	logger "github.com/sirupsen/logrus"
)

// TestNotify requests a test notification and sends it right away
// through a pipeline, the way the next site request would.
type TestNotify struct {
	Log     *logger.Entry
	Store   settings.Store
	SinkFor func(settings.Policy) sink.Sink
	Config  *Config
}

func (t *TestNotify) Start(ctx context.Context) error {
	if t.Config == nil {
		t.Config = GetConfig()
	}
	if t.SinkFor == nil {
		t.SinkFor = sink.ForPolicy
	}

	if err := t.Store.Set(ctx, settings.KeyPHPSendTestNotification, "true"); err != nil {
		return fmt.Errorf("request test notification: %w", err)
	}

	policy, err := settings.LoadPolicy(ctx, t.Store)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	if !policy.Enabled {
		t.Log.Warn("PHP reporting is disabled, the notification stays pending")
		return fmt.Errorf("%w: reporting disabled", pipeline.ErrTestNotificationNotSent)
	}

	p := pipeline.New(t.Store, t.SinkFor(policy),
		pipeline.WithContext(ctx),
		pipeline.WithPolicy(policy),
		pipeline.WithAmbient(enricher.Ambient{PlatformVersion: t.Config.PlatformVersion}),
	)
	if err := p.Init(); err != nil {
		return err
	}

	for _, res := range p.Results() {
		t.Log.WithField("notice_id", res.NoticeID).Info("test notification delivered")
	}
	return nil
}
