package internaldefs

import (
	"strings"
	"testing"

	"github.com/triovision/erpauth"
)

func TestCounterDefsCoverEveryCounter(t *testing.T) {
	c, err := erpauth.New().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer c.Close()

	snapshot := c.MetricsSnapshot()
	seen := make(map[erpauth.MetricID]bool, len(CounterDefs))
	names := make(map[string]bool, len(CounterDefs))
	pairs := make(map[string]bool, len(CounterDefs))
	for _, def := range CounterDefs {
		if seen[def.ID] {
			t.Fatalf("duplicate id %d", def.ID)
		}
		if names[def.Name] {
			t.Fatalf("duplicate name %s", def.Name)
		}
		if !strings.HasPrefix(def.Name, "erpauth_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("bad counter name %s", def.Name)
		}
		pair := def.Flow + "/" + def.Outcome
		if def.Flow == "" || def.Outcome == "" || pairs[pair] {
			t.Fatalf("bad flow/outcome %q for %s", pair, def.Name)
		}
		seen[def.ID] = true
		names[def.Name] = true
		pairs[pair] = true
	}
	for id := range snapshot.Counters {
		if !seen[id] {
			t.Fatalf("metric %d has no export definition", id)
		}
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(HistogramBounds) != len(got) {
		t.Fatalf("expected %d bounds, got %d", len(got), len(HistogramBounds))
	}
}
