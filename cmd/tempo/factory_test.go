package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ev28032024/TempoMetamask/pkg/adspower"
	"github.com/ev28032024/TempoMetamask/pkg/config"
	"github.com/ev28032024/TempoMetamask/pkg/models"
)

// The active check must precede the browser start: after a start the profile
// always reports active, and a freshly started browser would never get its
// extension warm-up pause.
func TestOpenChecksActiveBeforeStart(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		switch r.URL.Path {
		case "/api/v1/user/list":
			w.Write([]byte(`{"code":0,"msg":"ok","data":{"list":[{"user_id":"u1","serial_number":"1"}]}}`))
		case "/api/v1/browser/active":
			w.Write([]byte(`{"code":0,"msg":"ok","data":{"status":"Inactive"}}`))
		case "/api/v1/browser/start":
			w.Write([]byte(`{"code":-1,"msg":"browser did not start"}`))
		default:
			w.Write([]byte(`{"code":0,"msg":"ok"}`))
		}
	}))
	defer srv.Close()

	ads := adspower.New(srv.URL, "", zap.NewNop())
	factory := newSessionFactory(ads, nil, config.Default(), zap.NewNop())

	_, _, err := factory.Open(context.Background(), models.NewProfileRecord(1, 2))
	require.Error(t, err)

	require.Equal(t, []string{
		"/api/v1/user/list",
		"/api/v1/browser/active",
		"/api/v1/browser/start",
	}, calls)
}
