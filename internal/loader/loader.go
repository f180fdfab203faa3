// Package loader resolves record identifiers to spreadsheet document bytes.
package loader

import "context"

// Loader fetches the document attached to a record. A record without a
// document, or an unknown record, yields nil bytes and a nil error.
type Loader interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Func adapts a function to the Loader interface.
type Func func(ctx context.Context, id string) ([]byte, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, id string) ([]byte, error) {
	return f(ctx, id)
}
