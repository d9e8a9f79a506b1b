package testnotify

import (
	"context"
	"errors"
	"testing"

	"hbrelay/src/pipeline"
	"hbrelay/src/settings"
	"hbrelay/src/sink"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotify(values map[string]string, rec *sink.Recorder) (*TestNotify, *settings.MemoryStore) {
	store := settings.NewMemoryStore(values)
	return &TestNotify{
		Log:     logrus.WithField("cmd", "test-notify"),
		Store:   store,
		SinkFor: func(settings.Policy) sink.Sink { return rec },
		Config:  &Config{PlatformVersion: "cli-test"},
	}, store
}

func TestStartDelivers(t *testing.T) {
	rec := sink.NewRecorder()
	tn, store := newTestNotify(map[string]string{
		settings.KeyPHPEnabled: "true",
		settings.KeyPHPAPIKey:  "hbp_abcdef",
	}, rec)

	require.NoError(t, tn.Start(context.Background()))
	require.Equal(t, 1, rec.Len())
	assert.Equal(t, "HoneybadgerTestNotification", rec.Events()[0].Class)
	assert.Equal(t, "cli-test", rec.Events()[0].Context["platform_version"])

	flag, _ := store.Get(context.Background(), settings.KeyPHPSendTestNotification, "")
	assert.Equal(t, "false", flag)
}

func TestStartLeavesFlagOnFailure(t *testing.T) {
	rec := sink.NewRecorder()
	rec.Err = errors.New("backend down")
	tn, store := newTestNotify(map[string]string{
		settings.KeyPHPEnabled: "true",
		settings.KeyPHPAPIKey:  "hbp_abcdef",
	}, rec)

	err := tn.Start(context.Background())
	require.ErrorIs(t, err, pipeline.ErrTestNotificationNotSent)

	flag, _ := store.Get(context.Background(), settings.KeyPHPSendTestNotification, "")
	assert.Equal(t, "true", flag)
}

func TestStartDisabled(t *testing.T) {
	rec := sink.NewRecorder()
	tn, _ := newTestNotify(nil, rec)

	err := tn.Start(context.Background())
	require.ErrorIs(t, err, pipeline.ErrTestNotificationNotSent)
	assert.Equal(t, 0, rec.Len())
}
