package handler

import (
	"net/http"

	"hbrelay/src/auth"
	"hbrelay/src/browser"
	"hbrelay/src/settings"

	logger "github.com/sirupsen/logrus"
)

// BrowserConfigHandler serves the script body the site inlines before the
// JavaScript reporter. It is empty when JS reporting is disabled.
func BrowserConfigHandler(store settings.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		policy, err := settings.LoadPolicy(r.Context(), store)
		if err != nil {
			logger.WithError(err).Error("failed to load policy for browser config")
		}

		identity, _ := auth.GetIdentityFromContext(r.Context())
		script, err := browser.RenderForRequest(r.Context(), store, policy, identity)
		if err != nil {
			logger.WithError(err).Error("failed to render browser config")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write([]byte(script)); err != nil {
			logger.WithError(err).Error("failed to write browser config")
		}
	}
}
