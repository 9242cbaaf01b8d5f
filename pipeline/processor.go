package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	storex "github.com/tanpawarit/fedreg-agent/registry/store"
)

const processedLogName = "processed_log.txt"

// rawDocument is the Federal Register API document shape. President and
// executive-order fields vary between object/string and number/string
// across document types, so both decode tolerantly.
type rawDocument struct {
	DocumentNumber       string     `json:"document_number"`
	Title                string     `json:"title"`
	Type                 string     `json:"type"`
	Abstract             string     `json:"abstract"`
	PublicationDate      string     `json:"publication_date"`
	Agencies             []agency   `json:"agencies"`
	HTMLURL              string     `json:"html_url"`
	PDFURL               string     `json:"pdf_url"`
	RawTextURL           string     `json:"raw_text_url"`
	President            president  `json:"president"`
	ExecutiveOrderNumber flexString `json:"executive_order_number"`
}

type agency struct {
	Name string `json:"name"`
}

type president struct {
	Name string
}

func (p *president) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Name = s
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Name = obj.Name
	return nil
}

type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Processor normalizes raw download files into document rows ready for
// upsert, tracking already-processed files in a log so reruns only pick
// up new downloads.
type Processor struct {
	rawDir       string
	processedDir string
	logger       zerolog.Logger
}

func NewProcessor(cfg Config, logger zerolog.Logger) *Processor {
	return &Processor{
		rawDir:       cfg.RawDir,
		processedDir: cfg.ProcessedDir,
		logger:       logger,
	}
}

// ProcessAllNew normalizes every raw file not yet recorded in the
// processed log, writes a processed copy per file for record keeping, and
// returns all resulting rows.
func (p *Processor) ProcessAllNew() ([]storex.Document, error) {
	if err := os.MkdirAll(p.processedDir, 0o755); err != nil {
		return nil, fmt.Errorf("create processed dir: %w", err)
	}

	seen, err := p.readProcessedLog()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(p.rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read raw dir: %w", err)
	}

	var all []storex.Document
	var newlyProcessed []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || seen[name] {
			continue
		}

		docs, err := p.processFile(filepath.Join(p.rawDir, name))
		if err != nil {
			p.logger.Error().Err(err).Str("file", name).Msg("failed to process raw file")
			continue
		}
		if len(docs) == 0 {
			continue
		}

		if err := p.writeProcessedCopy(name, docs); err != nil {
			return nil, err
		}

		all = append(all, docs...)
		newlyProcessed = append(newlyProcessed, name)
		p.logger.Info().Str("file", name).Int("documents", len(docs)).Msg("processed raw file")
	}

	if err := p.appendProcessedLog(newlyProcessed); err != nil {
		return nil, err
	}
	return all, nil
}

func (p *Processor) processFile(path string) ([]storex.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read raw file: %w", err)
	}

	var raw []rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode raw file: %w", err)
	}

	docs := make([]storex.Document, 0, len(raw))
	for _, rd := range raw {
		doc, ok := p.normalize(rd)
		if !ok {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// normalize maps an API document onto a store row. Documents without a
// valid publication date are dropped: the date drives sorting and every
// date predicate, so a row without one would be unreachable anyway.
func (p *Processor) normalize(rd rawDocument) (storex.Document, bool) {
	pubDate, err := time.Parse("2006-01-02", rd.PublicationDate)
	if err != nil {
		p.logger.Warn().
			Str("document_number", rd.DocumentNumber).
			Str("publication_date", rd.PublicationDate).
			Msg("skipping document with missing or invalid publication date")
		return storex.Document{}, false
	}

	names := make([]string, 0, len(rd.Agencies))
	for _, a := range rd.Agencies {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	var serialized string
	if len(names) > 0 {
		b, err := json.Marshal(names)
		if err == nil {
			serialized = string(b)
		}
	}

	return storex.Document{
		DocumentNumber:       rd.DocumentNumber,
		Title:                rd.Title,
		Type:                 rd.Type,
		Abstract:             rd.Abstract,
		PublicationDate:      pubDate,
		Agencies:             serialized,
		DocumentURL:          rd.HTMLURL,
		PDFURL:               rd.PDFURL,
		RawTextURL:           rd.RawTextURL,
		President:            rd.President.Name,
		ExecutiveOrderNumber: string(rd.ExecutiveOrderNumber),
	}, true
}

func (p *Processor) writeProcessedCopy(rawName string, docs []storex.Document) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode processed batch: %w", err)
	}

	path := filepath.Join(p.processedDir, "processed_"+rawName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write processed file: %w", err)
	}
	return nil
}

func (p *Processor) readProcessedLog() (map[string]bool, error) {
	seen := make(map[string]bool)

	f, err := os.Open(filepath.Join(p.processedDir, processedLogName))
	if err != nil {
		if os.IsNotExist(err) {
			return seen, nil
		}
		return nil, fmt.Errorf("open processed log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			seen[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read processed log: %w", err)
	}
	return seen, nil
}

func (p *Processor) appendProcessedLog(names []string) error {
	if len(names) == 0 {
		return nil
	}

	f, err := os.OpenFile(
		filepath.Join(p.processedDir, processedLogName),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0o644,
	)
	if err != nil {
		return fmt.Errorf("open processed log: %w", err)
	}
	defer f.Close()

	for _, name := range names {
		if _, err := fmt.Fprintln(f, name); err != nil {
			return fmt.Errorf("append processed log: %w", err)
		}
	}
	return nil
}
