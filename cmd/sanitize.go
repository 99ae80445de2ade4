package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/katarogu/katarogu/internal/config"
	"github.com/katarogu/katarogu/internal/sanitize"
	"github.com/katarogu/katarogu/internal/store"
)

var (
	sigPath  string
	maxCheck int
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize",
	Short: "Drop placeholder sample images from stored records",
	Long: `Sanitize probes each record's best sample-image candidate against the
known placeholder signatures and removes sample lists that turn out to be
"no image" stand-ins. Verdicts are cached so reruns stay cheap.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		fs := osfs.New(".")
		meta, works, warnings, err := store.Load(fs, dataDir)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no record store in %s; run `katarogu fetch` first", dataDir)
		}
		if err != nil {
			return err
		}
		for _, w := range warnings {
			slog.Warn("store", "warning", w)
		}

		cache, err := sanitize.OpenCache(filepath.Join(dataDir, "noimage_cache.db"))
		if err != nil {
			return err
		}
		defer func() { _ = cache.Close() }()

		if sigPath == "" {
			sigPath = filepath.Join(dataDir, "noimage_signatures.json")
		}
		det := sanitize.NewDetector(sanitize.LoadSignatures(fs, sigPath), cache)

		res := sanitize.Scrub(cmd.Context(), works, det, maxCheck)
		slog.Info("sanitize complete", "checked", res.Checked, "changed", res.Changed)

		if res.Changed == 0 {
			return nil
		}
		if _, err := store.Save(fs, dataDir, meta, works, store.SaveOptions{
			ChunkSize: cfg.StoreChunkSize,
		}); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	sanitizeCmd.Flags().StringVar(&sigPath, "signatures", "", "Extra placeholder signatures file")
	sanitizeCmd.Flags().IntVar(&maxCheck, "max-check", 300, "Network probe budget per run")
	rootCmd.AddCommand(sanitizeCmd)
}
