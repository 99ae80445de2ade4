package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/config"
	"github.com/katarogu/katarogu/internal/fetch"
	"github.com/katarogu/katarogu/internal/merge"
	"github.com/katarogu/katarogu/internal/store"
)

var updateOnly bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Pull recent records from the upstream listing API into the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		apiID, affiliateID := config.Credentials()
		if apiID == "" || affiliateID == "" {
			return fmt.Errorf("KATAROGU_API_ID and KATAROGU_AFFILIATE_ID must be set")
		}

		fc := cfg.Fetch
		client := fetch.NewClient(fc.Endpoint, apiID, affiliateID, time.Duration(fc.TimeoutS)*time.Second)
		client.Site = fc.Site
		client.Service = fc.Service
		client.Floor = fc.Floor

		incoming, err := fetchAll(cmd.Context(), client, fc)
		if err != nil {
			return err
		}
		slog.Info("fetched", "records", len(incoming))

		fs := osfs.New(".")
		meta, existing, warnings, err := store.Load(fs, dataDir)
		if errors.Is(err, store.ErrNotFound) {
			meta, existing, err = api.Manifest{}, nil, nil
		}
		if err != nil {
			return err
		}
		for _, w := range warnings {
			slog.Warn("store", "warning", w)
		}

		mode := merge.Full
		if updateOnly {
			mode = merge.UpdateOnly
		}
		res := merge.Apply(existing, incoming, mode, cfg.MaxTotalWorks)
		if _, err := store.Save(fs, dataDir, meta, res.Works, store.SaveOptions{
			ChunkSize:     cfg.StoreChunkSize,
			CleanupLegacy: true,
		}); err != nil {
			return err
		}
		slog.Info("store updated",
			"total", len(res.Works),
			"new", res.New,
			"updated", res.Updated,
			"mode", map[bool]string{true: "update-only", false: "full"}[updateOnly])
		return nil
	},
}

// fetchAll pulls the configured number of recency pages, then the ranking
// pages. Ranking pages assign 1-based ranks in arrival order. Requests run
// sequentially with a fixed pause in between.
func fetchAll(ctx context.Context, client *fetch.Client, fc *config.Fetch) ([]api.Work, error) {
	pause := time.Duration(fc.SleepMS) * time.Millisecond
	var out []api.Work
	seen := make(map[string]int) // id -> index in out

	add := func(w api.Work) {
		if w.ID == "" || w.Title == "" {
			return // unusable without the merge key or a display title
		}
		if i, ok := seen[w.ID]; ok {
			out[i] = merge.Merge(&out[i], w)
			return
		}
		seen[w.ID] = len(out)
		out = append(out, w)
	}

	for page := 0; page < fc.DatePages; page++ {
		if page > 0 {
			time.Sleep(pause)
		}
		items, err := client.FetchPage(ctx, "date", 1+page*fc.Hits, fc.Hits)
		if err != nil {
			return nil, fmt.Errorf("fetch date page %d: %w", page+1, err)
		}
		for _, item := range items {
			add(fetch.FromItem(item, nil))
		}
		slog.Debug("fetched page", "sort", "date", "page", page+1, "items", len(items))
	}

	rank := 0
	for page := 0; page < fc.RankPages; page++ {
		time.Sleep(pause)
		items, err := client.FetchPage(ctx, "rank", 1+page*fc.Hits, fc.Hits)
		if err != nil {
			return nil, fmt.Errorf("fetch rank page %d: %w", page+1, err)
		}
		for _, item := range items {
			rank++
			r := rank
			add(fetch.FromItem(item, &r))
		}
		slog.Debug("fetched page", "sort", "rank", "page", page+1, "items", len(items))
	}
	return out, nil
}

func init() {
	fetchCmd.Flags().BoolVar(&updateOnly, "update-only", false, "Merge into existing records without adding new ones")
	rootCmd.AddCommand(fetchCmd)
}
