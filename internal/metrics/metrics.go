// Package metrics exposes Prometheus counters for settlements and RPC calls.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/tabsettle/internal/models"
)

const namespace = "tabsettle"

// Collector counts settlement activity. It is a tracker.Notifier.
type Collector struct {
	registry *prometheus.Registry

	legs        prometheus.Counter
	legAmount   prometheus.Counter
	settlements prometheus.Counter
	requests    *prometheus.CounterVec
}

// New creates a Collector with its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		legs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_legs_total",
			Help:      "Settlement transfers executed.",
		}),
		legAmount: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_amount_total",
			Help:      "Token base units moved by settlement transfers.",
		}),
		settlements: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_completed_total",
			Help:      "Settlement rounds that completed.",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Transaction(_ context.Context, _ string, leg models.Leg) {
	c.legs.Inc()
	c.legAmount.Add(leg.Amount.InexactFloat64())
}

func (c *Collector) CalculationFinished(context.Context, models.Round) {
	c.settlements.Inc()
}

// Interceptor counts every unary RPC by procedure and result code.
func (c *Collector) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeUnknown.String()
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					code = connectErr.Code().String()
				}
			}
			c.requests.WithLabelValues(req.Spec().Procedure, code).Inc()

			return resp, err
		}
	}
}
