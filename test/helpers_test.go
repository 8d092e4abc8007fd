package test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lineup/app"
	"github.com/kilianp07/lineup/config"
	"github.com/kilianp07/lineup/core/catalog"
	"github.com/kilianp07/lineup/core/model"
)

func loadRequest(t *testing.T, path string) (model.Request, []byte) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var req model.Request
	require.NoError(t, json.Unmarshal(data, &req))
	return req, data
}

// checkLineups asserts the properties every answer must hold regardless of
// which optimum the solver lands on.
func checkLineups(t *testing.T, cat *catalog.Catalog, req model.Request, lineups []model.Lineup) {
	t.Helper()
	require.Len(t, lineups, req.Count)
	seen := make(map[string]bool, len(lineups))
	for i, l := range lineups {
		assert.Len(t, l.Individuals, model.LineupIndividuals)
		assert.LessOrEqual(t, l.TotalCost, req.Budget+1e-9)
		assert.True(t, l.Contains(l.Turbo), "turbo %s not in lineup %d", l.Turbo.Name, i)
		cost, ok := cat.Cost(l.Turbo)
		require.True(t, ok)
		assert.Less(t, cost, cat.TurboThreshold())
		for _, o := range req.Overrides {
			id, _ := cat.Resolve(o.ID)
			switch o.Override {
			case model.OverrideInclude:
				assert.True(t, l.Contains(id), "lineup %d misses %s", i, o.ID)
			case model.OverrideExclude:
				assert.False(t, l.Contains(id), "lineup %d holds %s", i, o.ID)
			}
		}
		key := l.Selection().Key()
		assert.False(t, seen[key], "lineup %d repeats an earlier selection", i)
		seen[key] = true
		if i > 0 {
			assert.LessOrEqual(t, l.Objective, lineups[i-1].Objective+1e-9)
		}
	}
}

func startService(t *testing.T, cfg *config.Config) (*app.Service, string) {
	t.Helper()
	svc, err := app.New(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("service did not stop")
		}
		assert.NoError(t, svc.Close())
	})

	var base string
	require.Eventually(t, func() bool {
		if a := svc.Addr(); a != nil {
			base = "http://" + a.String()
			return true
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	return svc, base
}
