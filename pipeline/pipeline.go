// Package pipeline downloads Federal Register documents, normalizes them,
// and upserts them into the document store. Runs are sequential:
// download, process, load, clean up. Already-downloaded days that were
// processed before are skipped via the processed log; re-loading the same
// document updates it in place.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	logx "github.com/tanpawarit/fedreg-agent/pkg/logger"
	storex "github.com/tanpawarit/fedreg-agent/registry/store"
)

type Config struct {
	APIURL        string        `envconfig:"API_URL" split_words:"true" default:"https://www.federalregister.gov/api/v1/documents.json"`
	RawDir        string        `envconfig:"RAW_DIR" split_words:"true" default:"data/raw"`
	ProcessedDir  string        `envconfig:"PROCESSED_DIR" split_words:"true" default:"data/processed"`
	RetentionDays int           `envconfig:"RETENTION_DAYS" split_words:"true" default:"7"`
	DaysAgo       int           `envconfig:"DAYS_AGO" split_words:"true" default:"1"`
	PerPage       int           `envconfig:"PER_PAGE" split_words:"true" default:"200"`
	PageDelay     time.Duration `envconfig:"PAGE_DELAY" split_words:"true" default:"500ms"`
	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT" split_words:"true" default:"30s"`
}

// Loader persists processed documents.
type Loader interface {
	Upsert(ctx context.Context, docs []storex.Document) (int64, error)
}

type Pipeline struct {
	cfg        Config
	downloader *Downloader
	processor  *Processor
	loader     Loader
	logger     zerolog.Logger
}

func New(cfg Config, loader Loader) (*Pipeline, error) {
	if loader == nil {
		return nil, fmt.Errorf("pipeline: loader is required")
	}

	logger := logx.Component("pipeline")
	return &Pipeline{
		cfg:        cfg,
		downloader: NewDownloader(cfg, logger),
		processor:  NewProcessor(cfg, logger),
		loader:     loader,
		logger:     logger,
	}, nil
}

// Run executes one full pipeline pass.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info().Int("days_ago", p.cfg.DaysAgo).Msg("pipeline run starting")

	if err := p.downloader.DownloadRange(ctx, p.cfg.DaysAgo); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	docs, err := p.processor.ProcessAllNew()
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	if len(docs) > 0 {
		n, err := p.loader.Upsert(ctx, docs)
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
		p.logger.Info().Int64("rows", n).Msg("loaded documents")
	} else {
		p.logger.Info().Msg("no new documents to load")
	}

	for _, dir := range []string{p.cfg.RawDir, p.cfg.ProcessedDir} {
		if err := cleanupOldFiles(dir, p.cfg.RetentionDays, p.logger); err != nil {
			return fmt.Errorf("cleanup %s: %w", dir, err)
		}
	}

	p.logger.Info().Msg("pipeline run finished")
	return nil
}

// cleanupOldFiles removes files older than the retention window. Age
// comes from the YYYY-MM-DD filename prefix when there is one, otherwise
// from the file's modification time.
func cleanupOldFiles(dir string, retentionDays int, logger zerolog.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		age, ok := fileDate(entry)
		if !ok {
			continue
		}
		if age.After(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return err
		}
		logger.Info().Str("path", path).Msg("cleaned up old file")
	}
	return nil
}

func fileDate(entry os.DirEntry) (time.Time, bool) {
	name := entry.Name()
	prefix, _, found := strings.Cut(strings.TrimPrefix(name, "processed_"), "_")
	if found {
		if d, err := time.Parse("2006-01-02", prefix); err == nil {
			return d, true
		}
	}

	info, err := entry.Info()
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}
