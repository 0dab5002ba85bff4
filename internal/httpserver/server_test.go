package httpserver_test

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"discipline-bot/internal/httpserver"
	"discipline-bot/internal/logging"
	"discipline-bot/internal/metrics"
)

type fakeDB struct {
	err error
}

func (f fakeDB) PingContext(ctx context.Context) error { return f.err }
func (f fakeDB) Stats() sql.DBStats { return sql.DBStats{OpenConnections: 1, Idle: 1} }

func TestHealth(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"database reachable", nil, http.StatusOK},
		{"database down", errors.New("disk I/O error"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httpserver.New(":0", fakeDB{err: tc.err}, logging.Nop())
			rec := httptest.NewRecorder()

			srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.MustRegister()
	metrics.IncTelegramCommand("start")

	srv := httpserver.New(":0", fakeDB{}, logging.Nop())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "telegram_commands_received_total") {
		t.Error("metrics output lacks telegram_commands_received_total")
	}
}
