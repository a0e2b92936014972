package mysql

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/hellodir/internal/store/core"
)

// New está reservado para un driver MySQL. Todavía no hay backend
// transaccional MySQL cableado para el directorio.
func New(ctx context.Context, dsn string) (core.Store, error) {
	return nil, fmt.Errorf("mysql: %w", core.ErrNotImplemented)
}
