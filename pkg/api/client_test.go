package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmoreno/shopfront/pkg/config"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/rs/zerolog"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token() string { return s.token }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{ServiceName: "api-test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func newTestClient(t *testing.T, serverURL string, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(config.APIConfig{BaseURL: serverURL}, testLogger(t), opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(config.APIConfig{BaseURL: ""}, testLogger(t)); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := NewClient(config.APIConfig{BaseURL: "http://localhost"}, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestGetDecodesResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing X-Request-Id header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"mango habanero"}`))
	}))
	defer server.Close()

	var out struct {
		Name string `json:"name"`
	}
	if err := newTestClient(t, server.URL).Get(context.Background(), "/api/products/1", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Name != "mango habanero" {
		t.Errorf("name = %q", out.Name)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	t.Parallel()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithTokenSource(staticTokens{token: "tok-123"}))
	if err := client.Get(context.Background(), "/api/cart", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestEmptyTokenStaysAnonymous(t *testing.T) {
	t.Parallel()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithTokenSource(staticTokens{}))
	if err := client.Get(context.Background(), "/api/products", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusUnprocessableEntity, pkgerrors.CodeValidation},
		{http.StatusBadGateway, pkgerrors.CodeDependency},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
		}))

		err := newTestClient(t, server.URL).Get(context.Background(), "/api/orders", nil)
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := pkgerrors.CodeOf(err); got != tc.code {
			t.Errorf("status %d: code = %s, want %s", tc.status, got, tc.code)
		}
		if got := pkgerrors.As(err).Message(); got != "nope" {
			t.Errorf("status %d: message = %q, want upstream message", tc.status, got)
		}
	}
}

func TestAdminGuardFiresOnAdmin401(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	fired := 0
	client := newTestClient(t, server.URL, WithAdminGuard("/api/admin", func(context.Context) {
		fired++
	}))

	err := client.Get(context.Background(), "/api/admin/products", nil)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("code = %s", pkgerrors.CodeOf(err))
	}
	if fired != 1 {
		t.Errorf("guard fired %d times, want 1", fired)
	}
}

func TestAdminGuardIgnoresShopper401(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	fired := 0
	client := newTestClient(t, server.URL, WithAdminGuard("/api/admin", func(context.Context) {
		fired++
	}))

	_ = client.Get(context.Background(), "/api/users/profile", nil)
	if fired != 0 {
		t.Errorf("guard fired %d times on shopper path, want 0", fired)
	}
}

func TestAdminGuardIgnoresAdmin403(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fired := 0
	client := newTestClient(t, server.URL, WithAdminGuard("/api/admin", func(context.Context) {
		fired++
	}))

	err := client.Get(context.Background(), "/api/admin/orders", nil)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("code = %s", pkgerrors.CodeOf(err))
	}
	if fired != 0 {
		t.Errorf("guard fired %d times on 403, want 0", fired)
	}
}

func TestPostSendsJSONBody(t *testing.T) {
	t.Parallel()

	var gotBody string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	payload := map[string]string{"product_id": "p1"}
	if err := newTestClient(t, server.URL).Post(context.Background(), "/api/cart/add", payload, nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if gotBody != `{"product_id":"p1"}` {
		t.Errorf("body = %s", gotBody)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
}

func TestTransportErrorIsDependency(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "http://127.0.0.1:1")
	err := client.Get(context.Background(), "/api/products", nil)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Errorf("code = %s, want dependency", pkgerrors.CodeOf(err))
	}
}
