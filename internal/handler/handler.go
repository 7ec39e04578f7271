package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/promo-pricing/internal/domain/pricing"
)

const instrumentationName = "github.com/xenking/promo-pricing/internal/handler"

// Handler serves the pricing HTTP API, delegating business logic to a
// pricing.Pricer.
type Handler struct {
	pricer   pricing.Pricer
	tracer   trace.Tracer
	requests metric.Int64Counter
}

// NewHandler constructs a Handler. Spans and metrics are reported through the
// given providers.
func NewHandler(
	pricer pricing.Pricer,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Handler, error) {
	requests, err := mp.Meter(instrumentationName).Int64Counter("pricing.requests",
		metric.WithDescription("Pricing requests by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create requests counter")
	}

	return &Handler{
		pricer:   pricer,
		tracer:   tp.Tracer(instrumentationName),
		requests: requests,
	}, nil
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products/amount", h.GetProductAmount)
	mux.HandleFunc("POST /api/products/amount", h.PostProductAmount)
}
