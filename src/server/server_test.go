package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hbrelay/src/auth"
	"hbrelay/src/handler"
	"hbrelay/src/model"
	"hbrelay/src/notices"
	"hbrelay/src/settings"
	"hbrelay/src/sink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noFailures struct{}

func (noFailures) Create(context.Context, *model.Exception) error { return nil }

func (noFailures) Recent(context.Context, int) ([]model.Exception, error) {
	return []model.Exception{}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *sink.Recorder) {
	t.Helper()
	hash, err := auth.HashAdminToken("s3cret")
	require.NoError(t, err)
	relayHash, err := auth.HashAdminToken("relay-secret")
	require.NoError(t, err)

	rec := sink.NewRecorder()
	rl := &handler.Relay{
		Store: settings.NewMemoryStore(map[string]string{
			settings.KeyPHPEnabled: "true",
			settings.KeyPHPAPIKey:  "hbp_abcdef",
		}),
		SinkFor:  func(settings.Policy) sink.Sink { return rec },
		Failures: noFailures{},
		Board:    notices.NewBoard(10),
	}
	return NewRouter(rl, noFailures{}, &Config{AdminTokenHash: hash, IngestTokenHash: relayHash}), rec
}

func TestRouterHealthcheck(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestRouterAdminRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/admin/settings", "/admin/notices", "/admin/failures"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)

		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(auth.AdminTokenHeader, "s3cret")
		rr = httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestRouterIngest(t *testing.T) {
	r, rec := newTestRouter(t)

	body := `{"entries":[{"type":"exception","action":"init","class":"RuntimeException","message":"boom"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/requests", strings.NewReader(body))
	req.Header.Set(auth.RelayTokenHeader, "relay-secret")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Contains(t, rr.Body.String(), `"outcome":"delivered"`)
	require.Equal(t, 1, rec.Len())
	assert.Equal(t, "RuntimeException", rec.Events()[0].Class)
}

func TestRouterIngestRequiresRelayToken(t *testing.T) {
	r, rec := newTestRouter(t)

	body := `{"entries":[{"type":"exception","class":"Forged","message":"x"}]}`
	for _, token := range []string{"", "wrong", "s3cret"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/requests", strings.NewReader(body))
		if token != "" {
			req.Header.Set(auth.RelayTokenHeader, token)
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, token)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/browser-config.js", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	assert.Equal(t, 0, rec.Len())
}

func TestRouterQueryTokenOnlyOnNoticeStream(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/settings?token=s3cret", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/notices/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Authorized, but not a websocket handshake.
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/notices/ws?token=s3cret", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
