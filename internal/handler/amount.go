package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/promo-pricing/internal/domain/pricing"
)

// maxBodySize bounds POST request bodies.
const maxBodySize = 64 << 10

// GetProductAmount prices a product from query parameters:
// productId, and couponIds given either repeated or comma separated.
func (h *Handler) GetProductAmount(w http.ResponseWriter, r *http.Request) {
	req, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, http.StatusBadRequest, err.Error())
		return
	}
	h.serveAmount(r.Context(), w, req)
}

// PostProductAmount prices a product from a JSON body of the form
// {"productId": 2, "couponIds": [3, 4]}.
func (h *Handler) PostProductAmount(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, http.StatusBadRequest, "read request body")
		return
	}

	req, err := decodeRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, http.StatusBadRequest, err.Error())
		return
	}
	h.serveAmount(r.Context(), w, req)
}

func (h *Handler) serveAmount(ctx context.Context, w http.ResponseWriter, req pricing.Request) {
	ctx, span := h.tracer.Start(ctx, "ComputePrice", trace.WithAttributes(
		attribute.Int64("product.id", req.ProductID),
		attribute.Int64Slice("promotion.ids", req.PromotionIDs),
	))
	defer span.End()

	lg := zctx.From(ctx).With(zap.Int64("product_id", req.ProductID))

	res, err := h.pricer.ComputePrice(ctx, req)
	if err != nil {
		var pErr *pricing.Error
		if errors.As(err, &pErr) {
			h.count(ctx, strconv.Itoa(pErr.Code))
			span.SetAttributes(attribute.Int("pricing.error_code", pErr.Code))
			lg.Info("Pricing rejected", zap.Int("code", pErr.Code), zap.String("message", pErr.Message))
			writeError(w, statusFor(pErr), pErr.Code, pErr.Message)
			return
		}

		h.count(ctx, "internal")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		lg.Error("Compute price", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusInternalServerError, "internal server error")
		return
	}

	h.count(ctx, "ok")
	span.SetAttributes(attribute.Int64("pricing.final_price", res.FinalPrice))
	writeJSON(w, http.StatusOK, encodeResult(res))
}

func (h *Handler) count(ctx context.Context, outcome string) {
	h.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// statusFor maps a pricing rule violation to an HTTP status.
func statusFor(err *pricing.Error) int {
	if errors.Is(err, pricing.ErrProductNotFound) {
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}

func parseQuery(r *http.Request) (pricing.Request, error) {
	q := r.URL.Query()

	raw := q.Get("productId")
	if raw == "" {
		return pricing.Request{}, errors.New("productId is required")
	}
	productID, err := parseID(raw)
	if err != nil {
		return pricing.Request{}, errors.Wrap(err, "productId")
	}

	req := pricing.Request{ProductID: productID}
	for _, v := range q["couponIds"] {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return pricing.Request{}, errors.Wrap(err, "couponIds")
			}
			req.PromotionIDs = append(req.PromotionIDs, id)
		}
	}
	return req, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid id %q", s)
	}
	return id, nil
}

func decodeRequest(body []byte) (pricing.Request, error) {
	var (
		req        pricing.Request
		hasProduct bool
	)
	raw, err := jx.DecodeBytes(body).Raw()
	if err != nil {
		return pricing.Request{}, errors.Wrap(err, "decode request")
	}
	if len(raw) != len(bytes.TrimSpace(body)) {
		return pricing.Request{}, errors.New("unexpected data after request object")
	}

	err = jx.DecodeBytes(raw).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "productId":
			v, err := d.Int64()
			if err != nil {
				return errors.Wrap(err, "productId")
			}
			req.ProductID = v
			hasProduct = true
			return nil
		case "couponIds":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				v, err := d.Int64()
				if err != nil {
					return errors.Wrap(err, "couponIds")
				}
				req.PromotionIDs = append(req.PromotionIDs, v)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return pricing.Request{}, errors.Wrap(err, "decode request")
	}
	if !hasProduct || req.ProductID <= 0 {
		return pricing.Request{}, errors.New("productId is required")
	}
	for _, id := range req.PromotionIDs {
		if id <= 0 {
			return pricing.Request{}, errors.Errorf("invalid coupon id %d", id)
		}
	}
	return req, nil
}

func encodeResult(res *pricing.Result) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("name")
	e.Str(res.Name)
	e.FieldStart("originPrice")
	e.Int64(res.OriginPrice)
	e.FieldStart("discountPrice")
	e.Int64(res.DiscountPrice)
	e.FieldStart("finalPrice")
	e.Int64(res.FinalPrice)
	e.ObjEnd()
	return e.Bytes()
}

func writeError(w http.ResponseWriter, status, code int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, e.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
