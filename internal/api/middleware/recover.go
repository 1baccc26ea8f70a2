package middleware

import (
	"net/http"

	"github.com/ayo6706/transfer-saga/internal/api/problem"
	"go.uber.org/zap"
)

// RecoverMiddleware converts panics into 500 problems and logs the stack.
func RecoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
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
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("route", routePattern(r)),
					zap.String("method", r.Method),
					zap.String("request_id", TraceIDFromContext(r.Context())),
					zap.Stack("stack"),
				)
				problem.Write(w, r, http.StatusInternalServerError, problem.Type(problem.Internal), "", "unexpected server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
