// Package metrics define las métricas Prometheus del directorio.
// Paquete standalone para evitar ciclos de import entre la capa de
// servicios y la capa HTTP.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequests cuenta requests por método, ruta y status.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellodir_http_requests_total",
		Help: "Requests HTTP procesados",
	}, []string{"method", "route", "status"})

	// HTTPDuration mide la latencia por ruta.
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hellodir_http_request_duration_ms",
		Help:    "Latencia de requests HTTP en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"method", "route"})

	// ResolveLookups cuenta las resoluciones de los hot paths del
	// directorio (versión activa por client, provider → user).
	ResolveLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellodir_resolve_lookups_total",
		Help: "Lookups de resolución del directorio",
	}, []string{"lookup", "found"})
)

// ResolveLookup registra el resultado de un lookup caliente.
func ResolveLookup(lookup string, found bool) {
	ResolveLookups.WithLabelValues(lookup, strconv.FormatBool(found)).Inc()
}

// Register registra las métricas en el registry dado (o el default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{HTTPRequests, HTTPDuration, ResolveLookups} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
