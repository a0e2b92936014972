// Package directory implementa el system-of-record multi-tenant de
// clients, usuarios e identidades federadas: registro de tenants,
// clients con versionado de credenciales, usuarios por tenant y links a
// cuentas de identity providers externos.
//
// Todas las invariantes cross-entidad (unicidad global de client_id,
// email único por tenant, cuenta externa ligada a un solo usuario, a lo
// sumo una versión activa por client) se resuelven dentro de una única
// transacción del entity store; acá no hay check-then-write por fuera de
// una transacción.
package directory

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodir/internal/cache"
	"github.com/dropDatabas3/hellodir/internal/observability/logger"
	"github.com/dropDatabas3/hellodir/internal/store/core"
)

// Service expone las operaciones del directorio sobre un entity store.
type Service struct {
	store  core.Store
	loader *cache.Loader // nil ⇒ sin cache de hot paths
	log    *zap.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithCache habilita el cache de lookups calientes (versión activa,
// resolución por provider). TTL corto: las escrituras invalidan igual.
func WithCache(c cache.Client, ttl time.Duration) Option {
	return func(s *Service) { s.loader = cache.NewLoader(c, ttl) }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st core.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		log:   logger.Named("directory"),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// cachedJSON resuelve una key vía cache+singleflight si está habilitado,
// o directo contra el store si no.
func cachedJSON[T any](ctx context.Context, s *Service, key string, load func(context.Context) (*T, error)) (*T, error) {
	if s.loader == nil {
		return load(ctx)
	}
	raw, err := s.loader.GetOrLoad(ctx, key, func(ctx context.Context) (string, error) {
		v, err := load(ctx)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	})
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) invalidate(ctx context.Context, key string) {
	if s.loader != nil {
		s.loader.Invalidate(ctx, key)
	}
}
