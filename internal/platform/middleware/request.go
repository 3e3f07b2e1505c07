package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"grievance/pkg/requestcontext"
)

// Stamp assigns every request an id and a single request-scoped timestamp.
// Audit stamps and reopen-window arithmetic read this timestamp so one
// request never observes two different clocks.
func Stamp(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PlatformLabel classifies the caller's User-Agent into a coarse platform
// label for metrics.
func PlatformLabel(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := useragent.New(r.UserAgent())

		platform := "web"
		switch {
		case ua.Bot():
			platform = "bot"
		case ua.Mobile():
			platform = "mobile"
		}

		ctx := requestcontext.WithPlatform(r.Context(), platform)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
