package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/lineup/app"
	coremetrics "github.com/kilianp07/lineup/core/metrics"
	"github.com/kilianp07/lineup/core/model"
	"github.com/kilianp07/lineup/core/optimizer"
	"github.com/kilianp07/lineup/core/requestlog"
	"github.com/kilianp07/lineup/infra/logger"
	"github.com/kilianp07/lineup/pkg/export"
)

var (
	requestPath string
	lineupCount int
	outFormat   string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Solve one request file and print its top lineups",
	Long: `Solve one request file and print its top lineups.

A driver listed with both the turbo and no_turbo overrides is a conflicting
override: the command fails instead of letting the turbo pick win.`,
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVarP(&requestPath, "request", "r", "", "request file (YAML or JSON)")
	optimizeCmd.Flags().IntVarP(&lineupCount, "count", "n", 0, "number of lineups, overrides the request")
	optimizeCmd.Flags().StringVarP(&outFormat, "format", "f", "table", "output format: table, json or csv")
	_ = optimizeCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(optimizeCmd)
}

// readRequest decodes a request file by extension.
func readRequest(path string) (model.Request, error) {
	var req model.Request
	b, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &req)
	case ".json":
		err = json.Unmarshal(b, &req)
	default:
		return req, fmt.Errorf("unsupported request format: %s", filepath.Ext(path))
	}
	if err != nil {
		return req, fmt.Errorf("decode request %s: %w", path, err)
	}
	return req, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	switch outFormat {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unknown format %q", outFormat)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closeLog, err := logger.Setup(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	req, err := readRequest(requestPath)
	if err != nil {
		return err
	}
	if lineupCount != 0 {
		req.Count = lineupCount
	}
	ctx := cmd.Context()
	cat, err := app.LoadCatalog(ctx, cfg.Catalog)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	log := logger.NewZerologLoggerWithWriter("optimizer", cmd.ErrOrStderr())
	reqlog, err := requestlog.New(cfg.RequestLog)
	if err != nil {
		return fmt.Errorf("request log: %w", err)
	}
	defer func() { _ = reqlog.Close() }()
	engine, err := optimizer.NewEngine(cat, cfg.Solver, coremetrics.NopSink{}, log, optimizer.WithRequestLog(reqlog))
	if err != nil {
		return err
	}
	lineups, err := engine.Optimize(optimizer.WithRequestInfo(ctx, optimizer.RequestInfo{Source: "cli"}), req)
	if err != nil {
		return err
	}
	switch outFormat {
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), lineups)
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), lineups)
	default:
		return printLineups(cmd, lineups)
	}
}

func printLineups(cmd *cobra.Command, lineups []model.Lineup) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDRIVERS\tCONSTRUCTOR\tTURBO\tCOST\tSCORE\tOBJECTIVE")
	for i, l := range lineups {
		names := make([]string, len(l.Individuals))
		for j, id := range l.Individuals {
			names[j] = id.Name
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f\t%.1f\t%.1f\n",
			i+1, strings.Join(names, ","), l.Composite.Name, l.Turbo.Name, l.TotalCost, l.TotalScore, l.Objective)
	}
	return w.Flush()
}
