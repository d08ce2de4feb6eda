package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/pure-golang/moviehub-mailer/logger"
)

// Recovery recovers a panic, logs it with the stack on ERROR level and
// answers 500 with the same JSON error shape the API uses.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}

			var stack []string
			for _, line := range strings.Split(strings.ReplaceAll(string(debug.Stack()), "\t", ""), "\n") {
				if line != "" {
					stack = append(stack, line)
				}
			}

			logger.FromContext(r.Context()).
				With("err", err).
				With("stack", stack).
				Error("panic recovered from handler")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
		}()

		next.ServeHTTP(w, r)
	})
}
