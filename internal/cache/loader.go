package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader envuelve un Client con singleflight: ante una key fría golpeada
// por muchos callers en paralelo, la función de carga corre una sola vez
// y el resto comparte el resultado.
type Loader struct {
	c   Client
	sf  singleflight.Group
	ttl time.Duration
}

func NewLoader(c Client, ttl time.Duration) *Loader {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Loader{c: c, ttl: ttl}
}

// GetOrLoad retorna el valor cacheado o lo resuelve con load y lo guarda.
// Errores de load se propagan sin cachear.
func (l *Loader) GetOrLoad(ctx context.Context, key string, load func(context.Context) (string, error)) (string, error) {
	if v, err := l.c.Get(ctx, key); err == nil {
		return v, nil
	} else if !IsNotFound(err) {
		// Backend caído: degradar a load directo, sin cache.
		return load(ctx)
	}

	v, err, _ := l.sf.Do(key, func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return "", err
		}
		_ = l.c.Set(ctx, key, val, l.ttl)
		return val, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate borra la key y corta cualquier vuelo en curso para que la
// próxima lectura vea el estado nuevo (read-your-writes).
func (l *Loader) Invalidate(ctx context.Context, key string) {
	l.sf.Forget(key)
	_ = l.c.Delete(ctx, key)
}
