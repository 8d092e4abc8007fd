package requestlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lineup/core/model"
)

func sampleRecords(base time.Time) []Record {
	return []Record{
		{Timestamp: base, RequestID: "r1", Source: "http", Outcome: "optimal",
			Request: model.Request{Budget: 100, DriverScores: []model.DriverScore{{ID: "A", Score: 3}}},
			Requested: 5, Returned: 5, BestObjective: 129},
		{Timestamp: base.Add(time.Minute), RequestID: "r2", Source: "mqtt", Outcome: "infeasible",
			Error: "no feasible lineup"},
		{Timestamp: base.Add(2 * time.Minute), RequestID: "r3", Source: "http", Outcome: "optimal",
			Requested: 2, Returned: 2, BestObjective: 88},
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "requests.jsonl"))
	require.NoError(t, err)
	rotating, err := NewRotatingJSONLStore(filepath.Join(dir, "rot", "requests.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	stores := map[string]Store{"jsonl": jsonl, "rotating": rotating, "sqlite": sqlite}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStoresAppendQuery(t *testing.T) {
	base := time.Date(2022, 3, 20, 15, 0, 0, 0, time.UTC)
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, r := range sampleRecords(base) {
				require.NoError(t, store.Append(ctx, r))
			}

			all, err := store.Query(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "r1", all[0].RequestID)
			assert.Equal(t, sampleRecords(base)[0], all[0])
			assert.Equal(t, "A", all[0].Request.DriverScores[0].ID)

			cases := []struct {
				q    Query
				want []string
			}{
				{Query{Source: "http"}, []string{"r1", "r3"}},
				{Query{Outcome: "infeasible"}, []string{"r2"}},
				{Query{Start: base.Add(30 * time.Second)}, []string{"r2", "r3"}},
				{Query{End: base.Add(90 * time.Second)}, []string{"r1", "r2"}},
				{Query{RequestID: "r2"}, []string{"r2"}},
				{Query{RequestID: "nope"}, []string{}},
				{Query{Limit: 2}, []string{"r2", "r3"}},
				{Query{Source: "http", Limit: 1}, []string{"r3"}},
			}
			for _, tc := range cases {
				got, err := store.Query(ctx, tc.q)
				require.NoError(t, err)
				ids := make([]string, len(got))
				for i, r := range got {
					ids[i] = r.RequestID
				}
				assert.Equal(t, tc.want, ids, "query %+v", tc.q)
			}
		})
	}
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requests.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	scores := make([]model.DriverScore, 2000)
	for i := range scores {
		scores[i] = model.DriverScore{ID: fmt.Sprintf("driver-%04d", i), Score: float64(i)}
	}
	rec := Record{Timestamp: time.Now(), Request: model.Request{DriverScores: scores}}
	b, _ := json.Marshal(rec)
	n := (2<<20)/len(b) + 1
	if n > 200 {
		t.Fatalf("record too small to force rotation: %d bytes", len(b))
	}
	for i := 0; i < n; i++ {
		rec.RequestID = fmt.Sprintf("r%d", i)
		require.NoError(t, store.Append(context.Background(), rec))
	}
	files, err := store.files()
	require.NoError(t, err)
	assert.Greater(t, len(files), 1, "expected rotated files")

	out, err := store.Query(context.Background(), Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, fmt.Sprintf("r%d", n-1), out[0].RequestID)
}

func TestJSONLStoreSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), Record{RequestID: "ok"}))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, _ = f.WriteString("{not json\n")
	require.NoError(t, f.Close())
	require.NoError(t, store.Append(context.Background(), Record{RequestID: "ok2"}))

	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestQueryCanceled(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "h.jsonl"))
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), Record{RequestID: "x"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Query(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		cfg  Config
		want any
	}{
		{Config{}, NopStore{}},
		{Config{Type: TypeJSONL, Path: filepath.Join(dir, "a.jsonl")}, &JSONLStore{}},
		{Config{Type: TypeRotating, Path: filepath.Join(dir, "b.jsonl")}, &RotatingJSONLStore{}},
		{Config{Type: TypeSQLite, Path: filepath.Join(dir, "c.db")}, &SQLiteStore{}},
	}
	for _, tc := range cases {
		s, err := New(tc.cfg)
		require.NoError(t, err, tc.cfg.Type)
		assert.IsType(t, tc.want, s)
		_ = s.Close()
	}

	_, err := New(Config{Type: TypeJSONL})
	assert.Error(t, err)
	_, err = New(Config{Type: "postgres", Path: "x"})
	assert.Error(t, err)
}
