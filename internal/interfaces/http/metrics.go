package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hierarchy",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total de requests HTTP por ruta, método y status.",
	}, []string{"route", "method", "status"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hierarchy",
		Subsystem: "api",
		Name:      "latency_seconds",
		Help:      "Latencia de los requests HTTP por ruta y método.",
		Buckets: []float64{
			0.001, 0.005, 0.01, 0.05,
			0.1, 0.25, 0.5, 1, 2.5, 5, 10,
		},
	}, []string{"route", "method"})

	lifecycleMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hierarchy",
		Subsystem: "lifecycle",
		Name:      "mutations_total",
		Help:      "Mutaciones del directorio por operación y resultado.",
	}, []string{"op", "result"})
)

// MetricsMiddleware registra conteo y latencia por ruta registrada (no por path concreto).
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		apiRequests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		apiLatency.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

// MetricsHandler expone el registry por defecto en formato Prometheus.
func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func observeMutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = errorCode(err)
	}
	lifecycleMutations.WithLabelValues(op, result).Inc()
}
