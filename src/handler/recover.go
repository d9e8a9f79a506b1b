package handler

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"hbrelay/src/auth"
	"hbrelay/src/enricher"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"
)

const panicClass = "GoPanic"

// ReportPanics reports handler panics through a pipeline as uncaught
// exceptions, tagged with the matched route, and answers 500.
func ReportPanics(rl *Relay) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				file, line := panicSite()
				action := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					action = rctx.RoutePattern()
				}
				identity, _ := auth.GetIdentityFromContext(r.Context())

				logger.WithField("panic", rec).WithField("route", action).Error("handler panicked")

				p := rl.NewPipeline(r.Context(), RequestOptions{
					Ambient: enricher.Ambient{
						URL:             r.URL.String(),
						PlatformVersion: runtime.Version(),
						Action:          action,
						Identity:        identity,
					},
					Admin: auth.IsAdmin(r.Context()),
				})
				p.HandleException(panicClass, fmt.Sprint(rec), file, line, map[string]any{"method": r.Method})

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// panicSite finds the first frame outside the runtime, which is where the
// panic was raised.
func panicSite() (string, int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if f.Function != "" && !isRuntimeFrame(f.Function) {
			return f.File, f.Line
		}
		if !more {
			return "", 0
		}
	}
}

func isRuntimeFrame(fn string) bool {
	return strings.HasPrefix(fn, "runtime.")
}
