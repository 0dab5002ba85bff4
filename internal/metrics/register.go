package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Each file queues its collectors from init; MustRegister hands the queue to
// the default registry on the first call only.
var (
	pending      []prometheus.Collector
	registerOnce sync.Once
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

func MustRegister() {
	registerOnce.Do(func() { prometheus.MustRegister(pending...) })
}

// label lower-cases a label value. Empty values become "none".
func label(v string) string {
	if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
		return v
	}
	return "none"
}
