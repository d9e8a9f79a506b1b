package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"hbrelay/src/model"
	"hbrelay/src/notices"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

const (
	noticePollPeriod = 2 * time.Second
	wsWriteTimeout   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// FailureLister lists persisted delivery failures.
type FailureLister interface {
	Recent(ctx context.Context, limit int) ([]model.Exception, error)
}

func parseSince(r *http.Request) (uint64, bool) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return 0, true
	}
	since, err := strconv.ParseUint(raw, 10, 64)
	return since, err == nil
}

// ListNoticesHandler returns notices newer than ?since=.
func ListNoticesHandler(board *notices.Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, ok := parseSince(r)
		if !ok {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(board.Since(since)); err != nil {
			logger.WithError(err).Error("failed to encode notices response")
		}
	}
}

// DismissNoticeHandler removes one notice by sequence number.
func DismissNoticeHandler(board *notices.Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, err := strconv.ParseUint(chi.URLParam(r, "seq"), 10, 64)
		if err != nil {
			http.Error(w, "invalid seq", http.StatusBadRequest)
			return
		}
		if !board.Dismiss(seq) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// StreamNoticesHandler pushes notices to an admin console over a websocket
// until the client goes away.
func StreamNoticesHandler(board *notices.Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, ok := parseSince(r)
		if !ok {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("notice stream upgrade failed")
			return
		}
		defer conn.Close()

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(noticePollPeriod)
		defer ticker.Stop()

		for {
			for _, n := range board.Since(since) {
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(n); err != nil {
					logger.WithError(err).Debug("notice stream write failed")
					return
				}
				since = n.Seq
			}

			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}
		}
	}
}

// ListFailuresHandler returns the newest persisted delivery failures.
func ListFailuresHandler(repo FailureLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		out, err := repo.Recent(r.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("failed to list delivery failures")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			logger.WithError(err).Error("failed to encode failures response")
		}
	}
}
