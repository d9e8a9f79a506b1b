package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"hbrelay/src/model"
	"hbrelay/src/settings"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

const noticesPath = "/v1/notices"

// HoneybadgerSink posts events to the Honeybadger notice API.
type HoneybadgerSink struct {
	apiKey   string
	baseURL  string
	notifier notifier
	http     *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	if code >= 500 && code <= 599 {
		return true
	}
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// NewHoneybadgerSink builds a client for endpoint, falling back to the
// configured default when endpoint is empty.
func NewHoneybadgerSink(apiKey, endpoint string) *HoneybadgerSink {
	config := GetConfig()

	if endpoint == "" {
		endpoint = settings.GetConfig().DefaultEndpoint
		logger.WithField("endpoint", endpoint).Debug("[sink] no endpoint provided, using default")
	}
	endpoint = strings.TrimRight(endpoint, "/")

	retryCount := config.RetryAttempts - 1
	if retryCount < 0 {
		retryCount = 0
	}

	httpClient := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(config.Timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(config.RetryBaseDelay).
		SetRetryMaxWaitTime(config.RetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &HoneybadgerSink{
		apiKey:  apiKey,
		baseURL: endpoint,
		notifier: notifier{
			Name:    config.NotifierName,
			URL:     config.NotifierURL,
			Version: settings.BuildVersion(),
		},
		http: httpClient,
	}
}

// ForPolicy builds the PHP-side sink described by p.
func ForPolicy(p settings.Policy) Sink {
	return NewHoneybadgerSink(p.APIKey, p.Endpoint)
}

type notifier struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Version string `json:"version"`
}

type backtraceLine struct {
	File   string `json:"file"`
	Number string `json:"number"`
	Method string `json:"method"`
}

type noticeError struct {
	Class       string          `json:"class"`
	Message     string          `json:"message"`
	Backtrace   []backtraceLine `json:"backtrace"`
	Tags        []string        `json:"tags,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

type noticeRequest struct {
	URL       string             `json:"url"`
	Component string             `json:"component"`
	Action    string             `json:"action"`
	Context   model.EventContext `json:"context"`
}

type noticeServer struct {
	EnvironmentName string `json:"environment_name"`
	Revision        string `json:"revision"`
	Hostname        string `json:"hostname"`
}

type notice struct {
	Notifier notifier      `json:"notifier"`
	Error    noticeError   `json:"error"`
	Request  noticeRequest `json:"request"`
	Server   noticeServer  `json:"server"`
}

type noticeResponse struct {
	ID string `json:"id"`
}

func (s *HoneybadgerSink) buildNotice(ev model.Event) notice {
	hostname, _ := os.Hostname()

	backtrace := []backtraceLine{}
	if ev.Location != nil {
		backtrace = append(backtrace, backtraceLine{
			File:   ev.Location.File,
			Number: fmt.Sprintf("%d", ev.Location.Line),
			Method: string(ev.Origin),
		})
	}

	return notice{
		Notifier: s.notifier,
		Error: noticeError{
			Class:     ev.Class,
			Message:   ev.Message,
			Backtrace: backtrace,
			Tags:      []string{string(ev.Kind)},
		},
		Request: noticeRequest{
			URL:       ev.URL,
			Component: ev.Component,
			Action:    ev.Action,
			Context:   ev.Context,
		},
		Server: noticeServer{
			EnvironmentName: ev.Environment,
			Revision:        ev.Revision,
			Hostname:        hostname,
		},
	}
}

func (s *HoneybadgerSink) Send(ctx context.Context, ev model.Event) (string, error) {
	if s.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(s.buildNotice(ev))
	if err != nil {
		return "", fmt.Errorf("encode notice: %w", err)
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("X-API-Key", s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(body).
		Post(noticesPath)
	if err != nil {
		return "", fmt.Errorf("post notice: %w", err)
	}

	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}

	var parsed noticeResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode notice response: %w", err)
	}
	if parsed.ID == "" {
		parsed.ID = ev.ID
	}

	logger.WithFields(map[string]interface{}{
		"event_id":  ev.ID,
		"notice_id": parsed.ID,
		"class":     ev.Class,
	}).Debug("[sink] notice delivered")

	return parsed.ID, nil
}
