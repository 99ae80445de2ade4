package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/katarogu/katarogu/internal/config"
	"github.com/katarogu/katarogu/internal/index"
	"github.com/katarogu/katarogu/internal/sitegen"
	"github.com/katarogu/katarogu/internal/store"
)

var outDir string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the record store into the static site",
	Args:  cobra.NoArgs,
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

		site := sitegen.Site{
			Name:        cfg.SiteName,
			BaseURL:     config.ResolveBaseURL(cfg.SiteURL, meta.SiteURL, meta.BaseURL),
			Description: cfg.Description,
		}
		if meta.SiteName != "" && cfg.SiteName == config.Default().SiteName {
			site.Name = meta.SiteName
		}
		if site.Description == "" {
			site.Description = meta.Description
		}
		if site.BaseURL == "" {
			slog.Warn("no site URL configured; sitemap stubbed, feed skipped")
		}

		renderer, err := sitegen.NewTemplateRenderer()
		if err != nil {
			return err
		}
		builder := &sitegen.Builder{
			FS:       fs,
			OutDir:   outDir,
			Renderer: renderer,
			Site:     site,
			PerPage:  cfg.PerPage,
			RSSItems: cfg.RSSItems,
		}

		start := time.Now()
		usable := works[:0]
		for _, w := range works {
			if w.ID == "" || w.Title == "" {
				slog.Warn("skipping record without id/title", "id", w.ID)
				continue
			}
			usable = append(usable, w)
		}
		snap := index.Build(usable)
		stats, err := builder.Build(snap)
		if err != nil {
			return err
		}
		slog.Info("build complete",
			"works", stats.Works,
			"pages", stats.Pages,
			"search_chunks", stats.SearchChunks,
			"out", outDir,
			"elapsed", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&outDir, "out", "o", "docs", "Output directory")
	rootCmd.AddCommand(buildCmd)
}
