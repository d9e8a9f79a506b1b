package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"hbrelay/src/settings"

	logger "github.com/sirupsen/logrus"
)

var secretKeys = map[string]struct{}{
	settings.KeyPHPAPIKey: {},
	settings.KeyJSAPIKey:  {},
}

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func maskSecret(v string) string {
	if len(v) <= 4 {
		return v
	}
	return "****" + v[len(v)-4:]
}

// GetSettingsHandler returns every setting. API keys are masked.
func GetSettingsHandler(store settings.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, err := settings.Snapshot(r.Context(), store)
		if err != nil {
			logger.WithError(err).Error("failed to read settings")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		for k := range secretKeys {
			values[k] = maskSecret(values[k])
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(values); err != nil {
			logger.WithError(err).Error("failed to encode settings response")
		}
	}
}

// UpdateSettingsHandler validates and saves a partial settings update.
// Rejected updates answer 422 with the offending fields.
func UpdateSettingsHandler(store settings.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid settings payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if err := settings.Save(r.Context(), store, payload); err != nil {
			var verr *settings.ValidationError
			if errors.As(err, &verr) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnprocessableEntity)
				if err := json.NewEncoder(w).Encode(validationResponse{Error: "validation failed", Fields: verr.Fields}); err != nil {
					logger.WithError(err).Error("failed to encode validation response")
				}
				return
			}
			logger.WithError(err).Error("failed to save settings")
			http.Error(w, "Unable to save settings", http.StatusInternalServerError)
			return
		}

		logger.WithField("keys", len(payload)).Info("settings updated")
		w.WriteHeader(http.StatusNoContent)
	}
}
