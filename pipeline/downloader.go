package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Fields requested from the Federal Register API; they map onto the
// documents relation.
var documentFields = []string{
	"document_number",
	"title",
	"type",
	"abstract",
	"publication_date",
	"agencies",
	"html_url",
	"pdf_url",
	"raw_text_url",
	"president",
	"executive_order_number",
}

// Downloader fetches day-bucketed document batches from the Federal
// Register API and stores each day as one raw JSON file. There is no
// retry or backoff; the only pacing is a fixed delay between pages.
type Downloader struct {
	client    *http.Client
	apiURL    string
	rawDir    string
	perPage   int
	pageDelay time.Duration
	logger    zerolog.Logger
}

func NewDownloader(cfg Config, logger zerolog.Logger) *Downloader {
	return &Downloader{
		client:    &http.Client{Timeout: cfg.HTTPTimeout},
		apiURL:    cfg.APIURL,
		rawDir:    cfg.RawDir,
		perPage:   cfg.PerPage,
		pageDelay: cfg.PageDelay,
		logger:    logger,
	}
}

type apiPage struct {
	Results     []json.RawMessage `json:"results"`
	NextPageURL string            `json:"next_page_url"`
}

// FetchDay retrieves every document published on the given date, walking
// pagination until the API reports no further page.
func (d *Downloader) FetchDay(ctx context.Context, date time.Time) ([]json.RawMessage, error) {
	dateStr := date.Format("2006-01-02")

	var all []json.RawMessage
	for page := 1; ; page++ {
		results, next, err := d.fetchPage(ctx, dateStr, page)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d for %s: %w", page, dateStr, err)
		}
		if len(results) == 0 {
			break
		}
		all = append(all, results...)
		d.logger.Debug().Str("date", dateStr).Int("page", page).Int("total", len(all)).Msg("fetched page")

		if next == "" {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.pageDelay):
		}
	}
	return all, nil
}

func (d *Downloader) fetchPage(ctx context.Context, dateStr string, page int) ([]json.RawMessage, string, error) {
	params := url.Values{}
	for _, f := range documentFields {
		params.Add("fields[]", f)
	}
	params.Set("conditions[publication_date][gte]", dateStr)
	params.Set("conditions[publication_date][lte]", dateStr)
	params.Set("per_page", strconv.Itoa(d.perPage))
	params.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var body apiPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}
	return body.Results, body.NextPageURL, nil
}

// DownloadRange fetches one raw file per day for the daysAgo days leading
// up to today. Days with no documents produce no file.
func (d *Downloader) DownloadRange(ctx context.Context, daysAgo int) error {
	if err := os.MkdirAll(d.rawDir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}

	end := time.Now()
	for day := end.AddDate(0, 0, -daysAgo); day.Before(end); day = day.AddDate(0, 0, 1) {
		docs, err := d.FetchDay(ctx, day)
		if err != nil {
			return err
		}

		dateStr := day.Format("2006-01-02")
		if len(docs) == 0 {
			d.logger.Info().Str("date", dateStr).Msg("no documents for day")
			continue
		}

		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("encode raw batch for %s: %w", dateStr, err)
		}

		path := filepath.Join(d.rawDir, rawFileName(dateStr))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write raw file: %w", err)
		}
		d.logger.Info().Str("date", dateStr).Int("documents", len(docs)).Str("path", path).Msg("downloaded day")
	}
	return nil
}

func rawFileName(dateStr string) string {
	return dateStr + "_federal_register.json"
}
