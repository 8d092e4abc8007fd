package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/lineup/core/model"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario files")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte(":"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("expected unmarshal error")
	}
	unnamed := filepath.Join(dir, "unnamed.yaml")
	if err := os.WriteFile(unnamed, []byte("request:\n  budget: 10\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(unnamed); err == nil {
		t.Fatal("expected error for scenario without name")
	}
}

func TestCompareLineup(t *testing.T) {
	got := model.Lineup{
		Individuals: []model.PlayerID{model.Individual("A"), model.Individual("B")},
		Composite:   model.Composite("AB"),
		Turbo:       model.Individual("A"),
		TotalCost:   40,
		Objective:   60,
	}
	if msg := compareLineup(LineupDef{Drivers: []string{"B", "A"}, Constructor: "AB", Turbo: "A", Cost: 40, Objective: 60}, got); msg != "" {
		t.Fatalf("unexpected mismatch: %s", msg)
	}
	if msg := compareLineup(LineupDef{Turbo: "B"}, got); msg == "" {
		t.Fatal("expected turbo mismatch")
	}
	if msg := compareLineup(LineupDef{Drivers: []string{"A", "C"}}, got); msg == "" {
		t.Fatal("expected driver mismatch")
	}
}
