package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lineup/core/requestlog"
)

var (
	reqSource  string
	reqOutcome string
	reqSince   time.Duration
	reqLimit   int
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List recorded lineup requests as JSON lines",
	RunE:  runRequests,
}

func init() {
	requestsCmd.Flags().StringVar(&reqSource, "source", "", "filter by source (http, mqtt, cli)")
	requestsCmd.Flags().StringVar(&reqOutcome, "outcome", "", "filter by outcome")
	requestsCmd.Flags().DurationVar(&reqSince, "since", 0, "only requests newer than this")
	requestsCmd.Flags().IntVarP(&reqLimit, "limit", "n", 20, "most recent records to show, 0 for all")
	rootCmd.AddCommand(requestsCmd)
}

func runRequests(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.RequestLog.Type == requestlog.TypeNone {
		return fmt.Errorf("request_log.type is %s, nothing is recorded", requestlog.TypeNone)
	}
	store, err := requestlog.New(cfg.RequestLog)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	q := requestlog.Query{Source: reqSource, Outcome: reqOutcome, Limit: reqLimit}
	if reqSince > 0 {
		q.Start = time.Now().Add(-reqSince)
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
