package scenarios

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/lineup/core/model"
	"github.com/kilianp07/lineup/core/optimizer"
	"github.com/kilianp07/lineup/infra/logger"
	"github.com/kilianp07/lineup/infra/metrics"
)

const source = "qa"

func RunScenario(t *testing.T, sc *Scenario) {
	cat, err := sc.LoadCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	engine, err := optimizer.NewEngine(cat, optimizer.Config{}, sink, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	ctx := optimizer.WithRequestInfo(context.Background(), optimizer.RequestInfo{ID: sc.Name, Source: source})
	lineups, err := engine.Optimize(ctx, sc.Request)

	outcome := "optimal"
	if sc.Expected.Error != "" {
		outcome = sc.Expected.Error
		if got := model.ErrorKind(err); got != sc.Expected.Error {
			t.Fatalf("scenario %s expected %s error, got %v", sc.Name, sc.Expected.Error, err)
		}
	} else if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	if len(lineups) != sc.Expected.Lineups {
		t.Fatalf("scenario %s expected %d lineups, got %d", sc.Name, sc.Expected.Lineups, len(lineups))
	}
	for i, want := range sc.Expected.Ranked {
		if i >= len(lineups) {
			break
		}
		if msg := compareLineup(want, lineups[i]); msg != "" {
			t.Errorf("scenario %s lineup %d: %s", sc.Name, i+1, msg)
		}
	}
	for i := 1; i < len(lineups); i++ {
		if lineups[i].Objective > lineups[i-1].Objective+1e-9 {
			t.Errorf("scenario %s lineup %d beats lineup %d", sc.Name, i+1, i)
		}
	}

	expected := fmt.Sprintf(`
# HELP lineup_requests_total Optimisation requests by source and outcome
# TYPE lineup_requests_total counter
lineup_requests_total{outcome=%q,source=%q} 1
`, outcome, source)
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "lineup_requests_total"); err != nil {
		t.Errorf("scenario %s metrics: %v", sc.Name, err)
	}
}

func compareLineup(want LineupDef, got model.Lineup) string {
	if len(want.Drivers) > 0 {
		names := make([]string, len(got.Individuals))
		for i, id := range got.Individuals {
			names[i] = id.Name
		}
		if !sameSet(want.Drivers, names) {
			return fmt.Sprintf("drivers %v, want %v", names, want.Drivers)
		}
	}
	if want.Constructor != "" && got.Composite.Name != want.Constructor {
		return fmt.Sprintf("constructor %s, want %s", got.Composite.Name, want.Constructor)
	}
	if want.Turbo != "" && got.Turbo.Name != want.Turbo {
		return fmt.Sprintf("turbo %s, want %s", got.Turbo.Name, want.Turbo)
	}
	if want.Cost != 0 && math.Abs(got.TotalCost-want.Cost) > 1e-6 {
		return fmt.Sprintf("cost %v, want %v", got.TotalCost, want.Cost)
	}
	if want.Objective != 0 && math.Abs(got.Objective-want.Objective) > 1e-6 {
		return fmt.Sprintf("objective %v, want %v", got.Objective, want.Objective)
	}
	return ""
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	a = append([]string(nil), a...)
	b = append([]string(nil), b...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
