package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/conduit-lang/restbind/internal/web/response"
)

// Recovery turns a panicking handler into a 500 response and logs the panic
// with its stack
func Recovery(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					logger.Error("panic recovered",
						zap.String("request_id", GetRequestID(r.Context())),
						zap.Any("panic", rec),
						zap.ByteString("stack", debug.Stack()))

					response.RenderErrorWithCode(w, http.StatusInternalServerError,
						fmt.Errorf("an unexpected error occurred"), "internal_server_error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
