package sink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hbrelay/src/model"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSink(baseURL string) *HoneybadgerSink {
	return &HoneybadgerSink{
		apiKey:   "hbp_test",
		baseURL:  baseURL,
		notifier: notifier{Name: "hbrelay", Version: "test"},
		http:     resty.New().SetBaseURL(baseURL),
	}
}

func fakeResponse(status int) *resty.Response {
	return &resty.Response{RawResponse: &http.Response{StatusCode: status}}
}

func testEvent() model.Event {
	return model.Event{
		ID:          "evt-1",
		Class:       "E_WARNING",
		Message:     "Undefined variable $post",
		Kind:        model.KindNonFatal,
		Origin:      model.OriginRuntimeError,
		Location:    &model.Location{File: "wp-includes/post.php", Line: 88},
		Context:     model.EventContext{"url": "https://example.com/"},
		Component:   "wordpress",
		Action:      "the_content",
		Environment: "production",
		Revision:    "abc",
		URL:         "https://example.com/",
	}
}

func TestIsRetryableResp(t *testing.T) {
	cases := []struct {
		name string
		resp *resty.Response
		err  error
		want bool
	}{
		{name: "error present", err: errors.New("dial"), want: true},
		{name: "server error", resp: fakeResponse(503), want: true},
		{name: "too many requests", resp: fakeResponse(429), want: true},
		{name: "timeout", resp: fakeResponse(408), want: true},
		{name: "forbidden", resp: fakeResponse(403), want: false},
		{name: "created", resp: fakeResponse(201), want: false},
		{name: "nil resp", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isRetryableResp(tc.resp, tc.err))
		})
	}
}

func TestHoneybadgerSinkSend(t *testing.T) {
	var got notice
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, noticesPath, r.URL.Path)
		assert.Equal(t, "hbp_test", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"notice-123"}`))
	}))
	defer server.Close()

	id, err := newTestSink(server.URL).Send(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, "notice-123", id)

	assert.Equal(t, "E_WARNING", got.Error.Class)
	assert.Equal(t, "88", got.Error.Backtrace[0].Number)
	assert.Equal(t, "wordpress", got.Request.Component)
	assert.Equal(t, "the_content", got.Request.Action)
	assert.Equal(t, "production", got.Server.EnvironmentName)
	assert.Equal(t, "https://example.com/", got.Request.Context["url"])
}

func TestHoneybadgerSinkStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer server.Close()

	_, err := newTestSink(server.URL).Send(context.Background(), testEvent())
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusForbidden, serr.Code)
	assert.Equal(t, "invalid API key", serr.Reason())
}

func TestHoneybadgerSinkNoAPIKey(t *testing.T) {
	s := newTestSink("http://example")
	s.apiKey = ""
	_, err := s.Send(context.Background(), testEvent())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestSafeRecoversPanic(t *testing.T) {
	s := Safe(Func(func(context.Context, model.Event) (string, error) {
		panic("boom")
	}))
	_, err := s.Send(context.Background(), testEvent())
	assert.ErrorIs(t, err, ErrSinkPanic)

	_, err = Safe(nil).Send(context.Background(), testEvent())
	assert.ErrorIs(t, err, ErrNoSink)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	id, err := r.Send(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)
	assert.Equal(t, 1, r.Len())

	r.Err = errors.New("offline")
	_, err = r.Send(context.Background(), testEvent())
	assert.Error(t, err)
	assert.Len(t, r.Events(), 1)
}
