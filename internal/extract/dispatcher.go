package extract

import (
	"context"

	"go.uber.org/zap"
)

// Handler processes one recognized worksheet and hands what it extracts to emit.
type Handler func(ctx context.Context, ws Worksheet, emit Emit) error

// Dispatcher routes worksheets to handlers by sheet name.
type Dispatcher struct {
	handlers map[string]Handler
	logger   *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger that traces handler invocations.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher builds a dispatcher from a name → handler table. The table is
// copied; later changes to handlers do not affect the dispatcher.
func NewDispatcher(handlers map[string]Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{handlers: make(map[string]Handler, len(handlers)), logger: zap.NewNop()}
	for name, h := range handlers {
		if h != nil {
			d.handlers[name] = h
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Recognizes reports whether name has a handler.
func (d *Dispatcher) Recognizes(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// Dispatch invokes the handler of every recognized sheet in the order given and
// skips the rest. It returns the names of the sheets handled. The first handler
// failure stops dispatch and is returned as an *ExtractionError.
func (d *Dispatcher) Dispatch(ctx context.Context, sheets []Worksheet, emit Emit) ([]string, error) {
	var handled []string
	for _, ws := range sheets {
		h, ok := d.handlers[ws.Name()]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return handled, err
		}
		d.logger.Debug("processing sheet", zap.String("sheet", ws.Name()))
		if err := h(ctx, ws, emit); err != nil {
			return handled, &ExtractionError{Sheet: ws.Name(), Err: err}
		}
		handled = append(handled, ws.Name())
	}
	return handled, nil
}
