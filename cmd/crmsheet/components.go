package main

import (
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hyperjump/crmsheet/internal/config"
	"github.com/hyperjump/crmsheet/internal/extract"
	"github.com/hyperjump/crmsheet/internal/loader"
	"github.com/hyperjump/crmsheet/internal/processor"
	"github.com/hyperjump/crmsheet/internal/sink"
	"github.com/hyperjump/crmsheet/internal/storage"
)

// Components holds everything a command needs to process records.
type Components struct {
	Storage   storage.Storage
	Extractor *extract.Extractor
	Processor *processor.Processor
	Importer  *processor.Importer
	Sink      sink.Sink
	closers   []func() error
}

// Close releases the sink, loader and store connections.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

// initializeComponents wires store, loader, extractor and sink from cfg.
// Console sink output goes to console.
func initializeComponents(cfg *config.Config, logger *zap.Logger, console io.Writer) (*Components, error) {
	sheets, err := cfg.SheetRanges()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store, closers: []func() error{store.Close}}

	l, err := newLoader(cfg, store, c)
	if err != nil {
		c.Close()
		return nil, err
	}
	s, err := newSink(cfg, store, console, c)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Sink = s
	c.Extractor = extract.NewExtractor(sheets, extract.WithLogger(logger))
	c.Processor = processor.New(l, c.Extractor, s, processor.WithLogger(logger))
	c.Importer = processor.NewImporter(store, logger)
	logger.Debug("components initialized",
		zap.String("loader", cfg.Loader.Kind),
		zap.String("sink", cfg.Sink.Kind),
		zap.Int("sheets", len(sheets)))
	return c, nil
}

func newLoader(cfg *config.Config, store storage.Storage, c *Components) (loader.Loader, error) {
	lc := cfg.Loader
	switch lc.Kind {
	case config.LoaderStore:
		return loader.NewStoreLoader(store), nil
	case config.LoaderDir:
		if lc.Directory == "" {
			return nil, fmt.Errorf("loader kind %q requires loader.directory", lc.Kind)
		}
		return loader.NewDirLoader(lc.Directory), nil
	case config.LoaderHTTP:
		if lc.HTTP.BaseURL == "" {
			return nil, fmt.Errorf("loader kind %q requires loader.http.base_url", lc.Kind)
		}
		return loader.NewHTTPLoader(lc.HTTP.BaseURL, lc.HTTP.Timeout,
			loader.WithToken(lc.HTTP.Token),
			loader.WithMaxRetries(lc.HTTP.MaxRetries)), nil
	case config.LoaderRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     lc.Redis.Addr,
			Password: lc.Redis.Password,
			DB:       lc.Redis.DB,
		})
		c.closers = append(c.closers, client.Close)
		return loader.NewRedisLoader(client, lc.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown loader kind %q", lc.Kind)
	}
}

func newSink(cfg *config.Config, store storage.Storage, console io.Writer, c *Components) (sink.Sink, error) {
	sc := cfg.Sink
	switch sc.Kind {
	case config.SinkConsole:
		return sink.NewWriterSink(console), nil
	case config.SinkStore:
		return sink.NewStoreSink(store), nil
	case config.SinkHTTP:
		if sc.HTTP.URL == "" {
			return nil, fmt.Errorf("sink kind %q requires sink.http.url", sc.Kind)
		}
		return sink.NewHTTPSink(sc.HTTP.URL, sc.HTTP.Timeout,
			sink.WithToken(sc.HTTP.Token),
			sink.WithMaxRetries(sc.HTTP.MaxRetries)), nil
	case config.SinkAMQP:
		if sc.AMQP.URL == "" {
			return nil, fmt.Errorf("sink kind %q requires sink.amqp.url", sc.Kind)
		}
		s, err := sink.DialAMQP(sc.AMQP.URL, sc.AMQP.Exchange, sc.AMQP.RoutingKey)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, s.Close)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sink kind %q", sc.Kind)
	}
}
