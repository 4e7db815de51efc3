package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/fractalizend/screener/internal/api/response"
	"github.com/fractalizend/screener/internal/core"
)

// AllowMethods rejects requests whose method is not listed with a JSON
// 405 body.
func AllowMethods(methods ...string) func(http.Handler) http.Handler {
	allow := strings.Join(methods, ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(methods, r.Method) {
				w.Header().Set("Allow", allow)
				response.Error(w, http.StatusMethodNotAllowed,
					core.WrapError(core.ErrMethodNotAllowed, fmt.Errorf("%s not allowed", r.Method)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
