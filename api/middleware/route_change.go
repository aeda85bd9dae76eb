package middleware

import (
	"context"
	"net/http"
	"strings"
)

// RouteMonitor is satisfied by the auth health monitor.
type RouteMonitor interface {
	OnRouteChange(ctx context.Context)
}

// RouteChange fires the auth health monitor on every page navigation.
// The probe runs in its own goroutine so the request being served never
// waits on it; its effects (cart refetch, logout) are idempotent and
// apply whenever the probe resolves.
func RouteChange(monitor RouteMonitor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if monitor != nil && isNavigation(r) {
				go monitor.OnRouteChange(context.WithoutCancel(r.Context()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isNavigation filters out operational endpoints so scrapes and health
// checks do not count as shopper navigation.
func isNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	path := r.URL.Path
	return path != "/healthz" && path != "/metrics" && !strings.HasPrefix(path, "/debug")
}
