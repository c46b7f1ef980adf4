package port

import "context"

// ExportStorage persists generated exports under an output directory
type ExportStorage interface {
	// SaveExport writes content under name and returns the full path
	SaveExport(ctx context.Context, name string, content []byte) (string, error)
}
