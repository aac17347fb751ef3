// Package statusapi implements A6, the read-only status/inventory HTTP
// surface exposing discovered devices, their last sensor readings, and the
// async-op pool state (spec.md §4.15). It is a stand-in for the out-of-scope
// platform bus/object-model publication layer, not a control surface: every
// route here is a GET.
package statusapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nsm-fleet/nsmd/internal/asyncop"
	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/logger"
	"github.com/nsm-fleet/nsmd/internal/objectmodel"
)

// NewRouter builds the chi router serving the A6 endpoints.
func NewRouter(manager *device.Manager, cache *objectmodel.Cache, pool *asyncop.Pool) http.Handler {
	h := NewHandlers(manager, cache, pool)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", h.Healthz)
	r.Route("/devices", func(r chi.Router) {
		r.Get("/", h.ListDevices)
		r.Get("/{uuid}", h.GetDevice)
		r.Get("/{uuid}/sensors", h.GetDeviceSensors)
	})
	r.Get("/asyncops", h.ListAsyncOps)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debug("status api request",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start).String())
	})
}
