// Package migrations embebe los archivos SQL del schema del directorio.
package migrations

import "embed"

// FS contiene las migraciones (*_up.sql / *_down.sql) en orden de
// aplicación por nombre.
//
//go:embed *.sql
var FS embed.FS
