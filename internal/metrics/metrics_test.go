package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestWatchConnections(t *testing.T) {
	reg := prometheus.NewRegistry()
	open := 2
	if err := WatchConnections(reg, func() int { return open }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := WatchConnections(reg, func() int { return 0 }); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	read := func() float64 {
		t.Helper()
		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("gather: %v", err)
		}
		for _, f := range families {
			if f.GetName() == "bazaar_websocket_connections" {
				return f.GetMetric()[0].GetGauge().GetValue()
			}
		}
		t.Fatalf("gauge not exported")
		return 0
	}

	if got := read(); got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
	open = 5
	if got := read(); got != 5 {
		t.Fatalf("expected value read at scrape time, got %v", got)
	}
}
