package handler

import (
	"encoding/json"
	"net/http"

	"hbrelay/src/auth"
	"hbrelay/src/enricher"
	"hbrelay/src/hooks"
	"hbrelay/src/model"
	"hbrelay/src/pipeline"

	logger "github.com/sirupsen/logrus"
)

const maxIngestBody = 1 << 20

const (
	entryError     = "error"
	entryException = "exception"
)

// IngestEntry is one callback the PHP runtime fired during the request, in order.
type IngestEntry struct {
	Type    string         `json:"type"` // "error" | "exception"
	Action  string         `json:"action"`
	Level   model.Level    `json:"level"`
	Class   string         `json:"class"`
	Message string         `json:"message"`
	File    string         `json:"file"`
	Line    int            `json:"line"`
	Context map[string]any `json:"context"`

	// error_reporting() while the callback ran; nil means the request's mask.
	ReportingMask *int `json:"reporting_mask"`
}

// IngestLastError is what error_get_last() returned at shutdown.
type IngestLastError struct {
	Level   model.Level `json:"level"`
	Message string      `json:"message"`
	File    string      `json:"file"`
	Line    int         `json:"line"`
}

// IngestPayload is one finished PHP request as posted by the site shim.
type IngestPayload struct {
	URL             string           `json:"url"`
	PlatformVersion string           `json:"platform_version"`
	PlatformMajor   int              `json:"platform_major"`
	ReportingMask   *int             `json:"reporting_mask"`
	Admin           bool             `json:"is_admin"`
	Entries         []IngestEntry    `json:"entries"`
	LastError       *IngestLastError `json:"last_error"`
}

type ingestResult struct {
	Outcome  pipeline.Outcome `json:"outcome"`
	EventID  string           `json:"event_id,omitempty"`
	NoticeID string           `json:"notice_id,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type ingestResponse struct {
	Results []ingestResult `json:"results"`
}

// IngestHandler replays a posted request lifecycle through a fresh
// dispatcher and pipeline.
func IngestHandler(rl *Relay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload IngestPayload
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody))
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid ingest payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		for _, e := range payload.Entries {
			if e.Type != entryError && e.Type != entryException {
				http.Error(w, "invalid entry type", http.StatusBadRequest)
				return
			}
		}

		identity, _ := auth.GetIdentityFromContext(r.Context())
		p := rl.NewPipeline(r.Context(), RequestOptions{
			Ambient: enricher.Ambient{
				URL:             payload.URL,
				PlatformVersion: payload.PlatformVersion,
				Identity:        identity,
			},
			Admin:         payload.Admin,
			ReportingMask: payload.ReportingMask,
			PlatformMajor: payload.PlatformMajor,
		})

		d := hooks.NewDispatcher()
		p.Register(d)
		Replay(d, payload)

		resp := ingestResponse{Results: []ingestResult{}}
		for _, res := range p.Results() {
			out := ingestResult{Outcome: res.Outcome, EventID: res.EventID, NoticeID: res.NoticeID}
			if res.Err != nil {
				out.Error = res.Err.Error()
			}
			resp.Results = append(resp.Results, out)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.WithError(err).Error("failed to encode ingest response")
		}
	}
}

// Replay fires the payload's callbacks on d in order, then terminates.
func Replay(d *hooks.Dispatcher, payload IngestPayload) {
	for _, e := range payload.Entries {
		e := e
		fire := func() {
			switch e.Type {
			case entryError:
				d.FireError(e.Level, e.Message, e.File, e.Line)
			case entryException:
				d.FireException(e.Class, e.Message, e.File, e.Line, e.Context)
			}
		}
		d.DoAction(e.Action, func() {
			if e.ReportingMask != nil {
				d.WithReportingMask(*e.ReportingMask, fire)
				return
			}
			fire()
		})
	}

	var last *model.Signal
	if le := payload.LastError; le != nil {
		last = &model.Signal{Level: le.Level, Message: le.Message}
		if le.File != "" || le.Line != 0 {
			last.Location = &model.Location{File: le.File, Line: le.Line}
		}
	}
	d.DoAction("shutdown", func() { d.Terminate(last) })
}
