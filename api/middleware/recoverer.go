package middleware

import (
	"fmt"
	"net/http"

	"github.com/dmoreno/shopfront/api/responses"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
)

// Recoverer converts a handler panic into a logged INTERNAL_ERROR
// envelope instead of tearing down the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				val := recover()
				if val == nil {
					return
				}
				err := fmt.Errorf("panic: %v", val)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic": val,
						"path":  r.URL.Path,
					})
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
