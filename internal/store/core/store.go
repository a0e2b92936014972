package core

import "context"

// Collection identifica una de las cinco colecciones del directorio.
type Collection string

const (
	Tenants        Collection = "tenant"
	Clients        Collection = "client"
	ClientVersions Collection = "client_version"
	AppUsers       Collection = "app_user"
	Identities     Collection = "identity"
)

// Record es cualquier entidad persistible. Todos los registros llevan un
// ID asignado por el caller y un stamp de concurrencia optimista (Rev).
type Record interface {
	RecordID() string
	Revision() int64
}

func (t *Tenant) RecordID() string        { return t.ID }
func (t *Tenant) Revision() int64         { return t.Rev }
func (c *Client) RecordID() string        { return c.ID }
func (c *Client) Revision() int64         { return c.Rev }
func (v *ClientVersion) RecordID() string { return v.ID }
func (v *ClientVersion) Revision() int64  { return v.Rev }
func (u *AppUser) RecordID() string       { return u.ID }
func (u *AppUser) Revision() int64        { return u.Rev }
func (i *Identity) RecordID() string      { return i.ID }
func (i *Identity) Revision() int64       { return i.Rev }

// Store es el entity store transaccional del directorio, abstraído del
// motor concreto (memdb para single-node, postgres para producción).
//
// Toda lectura/escritura pasa por una transacción: View para snapshots de
// lectura, Update para escrituras exclusivas. Si fn retorna error, la
// transacción se aborta completa; nunca hay escrituras parciales visibles.
// Si el contexto del caller se cancela a mitad de camino, el driver
// garantiza rollback (abandono sin estado parcial).
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	// View ejecuta fn dentro de una transacción de solo lectura.
	View(ctx context.Context, fn func(Tx) error) error

	// Update ejecuta fn dentro de una transacción de escritura.
	// Commit si fn retorna nil; rollback en cualquier otro caso.
	Update(ctx context.Context, fn func(Tx) error) error
}

// Tx expone las operaciones del entity store dentro de una transacción.
//
// Los lookups van siempre por índice declarado en el schema (ver
// schema.go); no hay scans con predicados arbitrarios. List sobre
// ClientVersions ordena por ordinal ascendente, el resto por inserción.
type Tx interface {
	// Insert persiste un registro nuevo. Retorna ErrConflict si alguna
	// combinación de clave única declarada ya existe. El chequeo y la
	// escritura son atómicos: no hay ventana para duplicados bajo
	// inserts concurrentes.
	Insert(col Collection, rec Record) error

	// Get retorna el registro por ID o ErrNotFound.
	Get(col Collection, id string) (Record, error)

	// First retorna el primer registro que matchea el índice, o ErrNotFound.
	First(col Collection, index string, args ...any) (Record, error)

	// List retorna todos los registros que matchean el índice.
	List(col Collection, index string, args ...any) ([]Record, error)

	// Put reemplaza un registro existente con chequeo compare-and-swap:
	// retorna ErrConflict si el Rev almacenado difiere del Rev del
	// registro entrante, ErrNotFound si no existe. Incrementa el Rev.
	Put(col Collection, rec Record) error

	// Delete elimina por ID. Retorna ErrNotFound si no existe y
	// ErrIntegrity si otros registros todavía lo referencian (las
	// cascadas se resuelven borrando los hijos primero, en la misma
	// transacción).
	Delete(col Collection, id string) error
}
