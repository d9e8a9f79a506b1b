package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"hbrelay/src/handler"
	"hbrelay/src/repository"
	"hbrelay/src/settings"
	"hbrelay/src/sink"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type failingPurger struct{}

func (failingPurger) PurgeBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("db down")
}

func setupDBMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

func newRelay(values map[string]string, rec *sink.Recorder) *handler.Relay {
	return &handler.Relay{
		Store:   settings.NewMemoryStore(values),
		SinkFor: func(settings.Policy) sink.Sink { return rec },
	}
}

func TestPurge(t *testing.T) {
	db, mock := setupDBMock(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "exceptions" WHERE created_at < \$1`).
		WithArgs(now.Add(-48 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	l := &Loop{
		Purger: repository.NewExceptionRepositoryWithDB(db),
		Config: Config{Retention: 48 * time.Hour},
		Now:    func() time.Time { return now },
	}

	n, err := l.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeRejectsZeroRetention(t *testing.T) {
	l := &Loop{Purger: failingPurger{}}

	_, err := l.Purge(context.Background())
	require.Error(t, err)
}

func TestRetryTestNotification(t *testing.T) {
	rec := sink.NewRecorder()
	rl := newRelay(map[string]string{
		settings.KeyPHPEnabled:              "true",
		settings.KeyPHPAPIKey:               "hbp_abcdef",
		settings.KeyPHPSendTestNotification: "true",
	}, rec)
	l := &Loop{Relay: rl, Config: Config{RetryTestNotification: true}}

	require.NoError(t, l.RetryTestNotification(context.Background()))
	require.Equal(t, 1, rec.Len())

	// Nothing pending any more.
	require.NoError(t, l.RetryTestNotification(context.Background()))
	assert.Equal(t, 1, rec.Len())
}

func TestRetryTestNotificationStillPending(t *testing.T) {
	rec := sink.NewRecorder()
	rec.Err = errors.New("backend down")
	rl := newRelay(map[string]string{
		settings.KeyPHPEnabled:              "true",
		settings.KeyPHPAPIKey:               "hbp_abcdef",
		settings.KeyPHPSendTestNotification: "true",
	}, rec)
	l := &Loop{Relay: rl, Config: Config{RetryTestNotification: true}}

	require.Error(t, l.RetryTestNotification(context.Background()))
	flag, _ := rl.Store.Get(context.Background(), settings.KeyPHPSendTestNotification, "")
	assert.Equal(t, "true", flag)
}

func TestRunOnceJoinsErrors(t *testing.T) {
	rec := sink.NewRecorder()
	rl := newRelay(map[string]string{
		settings.KeyPHPEnabled:              "true",
		settings.KeyPHPAPIKey:               "hbp_abcdef",
		settings.KeyPHPSendTestNotification: "true",
	}, rec)
	l := &Loop{
		Relay:  rl,
		Purger: failingPurger{},
		Config: Config{Retention: time.Hour, RetryTestNotification: true},
	}

	err := l.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	// The retry still ran.
	assert.Equal(t, 1, rec.Len())
}

func TestStartLoopStopsOnCancel(t *testing.T) {
	l := &Loop{Config: Config{LoopPeriod: time.Millisecond}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.StartLoop(ctx) }()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	require.Error(t, (&Loop{}).StartLoop(context.Background()))
}
