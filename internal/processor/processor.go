// Package processor runs the record pipeline: load the document, read its
// sheets, extract the configured ranges and hand every table to the sink.
package processor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/crmsheet/internal/extract"
	"github.com/hyperjump/crmsheet/internal/loader"
	"github.com/hyperjump/crmsheet/internal/models"
	"github.com/hyperjump/crmsheet/internal/recordid"
	"github.com/hyperjump/crmsheet/internal/sink"
)

// ErrInvalidRecordID is returned when a record id is not a UUID.
var ErrInvalidRecordID = errors.New("invalid record id")

// Result describes one processed record.
type Result struct {
	RecordID string                   `json:"record_id"`
	Skipped  bool                     `json:"skipped"`
	Sheets   []string                 `json:"sheets"`
	Tables   []*models.ExtractedTable `json:"tables"`
}

// Processor processes records. It holds no per-record state, so a single
// Processor may serve concurrent calls when its loader and sink allow it.
type Processor struct {
	loader    loader.Loader
	extractor *extract.Extractor
	sink      sink.Sink
	logger    *zap.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger for processing events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a processor with the given dependencies.
func New(l loader.Loader, e *extract.Extractor, s sink.Sink, opts ...Option) *Processor {
	p := &Processor{
		loader:    l,
		extractor: e,
		sink:      s,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessRecord fetches the document of record id and processes it.
// A record without a document is skipped: the result has Skipped set and the
// error is nil.
func (p *Processor) ProcessRecord(ctx context.Context, id string) (*Result, error) {
	canonical, err := recordid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidRecordID, id, err)
	}
	content, err := p.loader.Fetch(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("fetch record %s: %w", canonical, err)
	}
	if content == nil {
		p.logger.Info("no document attached to record, skipping", zap.String("record_id", canonical))
		return &Result{RecordID: canonical, Skipped: true}, nil
	}
	return p.ProcessBytes(ctx, canonical, content)
}

// ProcessBytes processes an already loaded document on behalf of record id.
// Tables reach the sink as each sheet is extracted; the first failure ends
// processing and is returned along with what was handled so far.
func (p *Processor) ProcessBytes(ctx context.Context, id string, content []byte) (*Result, error) {
	res := &Result{RecordID: id}
	emit := func(ctx context.Context, t *models.ExtractedTable) error {
		t.RecordID = id
		if err := p.sink.Accept(ctx, t); err != nil {
			return fmt.Errorf("sink: %w", err)
		}
		res.Tables = append(res.Tables, t)
		p.logger.Debug("table delivered",
			zap.String("record_id", id),
			zap.String("sheet", t.Sheet),
			zap.String("range", t.Range),
			zap.Int("cells", len(t.Cells)))
		return nil
	}

	if err := sink.Reset(ctx, p.sink, id); err != nil {
		p.logger.Error("record processing failed", zap.String("record_id", id), zap.Error(err))
		return res, fmt.Errorf("sink: %w", err)
	}
	sheets, err := p.extractor.ExtractBytes(ctx, content, emit)
	res.Sheets = sheets
	if errors.Is(err, extract.ErrInvalidWorkbook) {
		p.logger.Warn("Invalid Excel file", zap.String("record_id", id), zap.Error(err))
		return res, err
	}
	if err != nil {
		p.logger.Error("record processing failed", zap.String("record_id", id), zap.Error(err))
		return res, err
	}
	p.logger.Info("record processed",
		zap.String("record_id", id),
		zap.Strings("sheets", sheets),
		zap.Int("tables", len(res.Tables)))
	return res, nil
}
