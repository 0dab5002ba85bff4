package metrics

import (
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if c := out.GetCounter(); c != nil {
		return c.GetValue()
	}
	return out.GetGauge().GetValue()
}

func TestCountersUseNormalizedLabels(t *testing.T) {
	before := value(t, telegramCommandsReceivedTotal.WithLabelValues("weight"))
	IncTelegramCommand("  Weight ")
	if got := value(t, telegramCommandsReceivedTotal.WithLabelValues("weight")); got != before+1 {
		t.Errorf("weight counter = %v, want %v", got, before+1)
	}

	IncStorageError("")
	if got := value(t, storageErrorsTotal.WithLabelValues("none")); got < 1 {
		t.Errorf("empty op should be counted as none, got %v", got)
	}
}

func TestMustRegisterIsIdempotent(t *testing.T) {
	MustRegister()
	MustRegister()

	ObservePool(sql.DBStats{OpenConnections: 3, Idle: 2, InUse: 1})
	if got := value(t, sqliteConnections.WithLabelValues("open")); got != 3 {
		t.Errorf("open = %v, want 3", got)
	}
	if got := value(t, sqliteConnections.WithLabelValues("in_use")); got != 1 {
		t.Errorf("in_use = %v, want 1", got)
	}
}
