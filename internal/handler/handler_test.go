package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/promo-pricing/internal/domain/pricing"
)

// --- Mock implementations ---

type mockPricer struct {
	result  *pricing.Result
	err     error
	lastReq pricing.Request
	calls   int
}

func (m *mockPricer) ComputePrice(_ context.Context, req pricing.Request) (*pricing.Result, error) {
	m.calls++
	m.lastReq = req
	return m.result, m.err
}

// --- Helpers ---

type amountResponse struct {
	Name          string `json:"name"`
	OriginPrice   int64  `json:"originPrice"`
	DiscountPrice int64  `json:"discountPrice"`
	FinalPrice    int64  `json:"finalPrice"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newTestServer(t *testing.T, p *mockPricer) http.Handler {
	t.Helper()
	h, err := NewHandler(p, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func do(t *testing.T, srv http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

var okResult = &pricing.Result{
	Name:          "Fitting node product 2",
	OriginPrice:   100_000,
	DiscountPrice: 60_000,
	FinalPrice:    40_000,
}

// --- Tests ---

func TestGetProductAmount(t *testing.T) {
	p := &mockPricer{result: okResult}
	srv := newTestServer(t, p)

	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/products/amount?productId=2&couponIds=3,4", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, pricing.Request{ProductID: 2, PromotionIDs: []int64{3, 4}}, p.lastReq)

	body := decode[amountResponse](t, w)
	assert.Equal(t, amountResponse{
		Name:          "Fitting node product 2",
		OriginPrice:   100_000,
		DiscountPrice: 60_000,
		FinalPrice:    40_000,
	}, body)
}

func TestGetProductAmount_RepeatedCouponParams(t *testing.T) {
	p := &mockPricer{result: okResult}
	srv := newTestServer(t, p)

	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/products/amount?productId=2&couponIds=4&couponIds=3", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{4, 3}, p.lastReq.PromotionIDs)
}

func TestGetProductAmount_NoCoupons(t *testing.T) {
	p := &mockPricer{result: okResult}
	srv := newTestServer(t, p)

	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/products/amount?productId=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, p.lastReq.PromotionIDs)
}

func TestGetProductAmount_BadRequest(t *testing.T) {
	for _, q := range []string{
		"",
		"?productId=",
		"?productId=abc",
		"?productId=-1",
		"?productId=1&couponIds=3,x",
	} {
		t.Run(q, func(t *testing.T) {
			p := &mockPricer{result: okResult}
			srv := newTestServer(t, p)

			w := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/products/amount"+q, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, 400, decode[errorResponse](t, w).Code)
			assert.Zero(t, p.calls)
		})
	}
}

func TestPostProductAmount(t *testing.T) {
	p := &mockPricer{result: okResult}
	srv := newTestServer(t, p)

	req := httptest.NewRequest(http.MethodPost, "/api/products/amount",
		strings.NewReader(`{"productId":2,"couponIds":[3,4],"extra":{"ignored":true}}`))
	w := do(t, srv, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pricing.Request{ProductID: 2, PromotionIDs: []int64{3, 4}}, p.lastReq)
	assert.Equal(t, int64(40_000), decode[amountResponse](t, w).FinalPrice)
}

func TestPostProductAmount_NullCoupons(t *testing.T) {
	p := &mockPricer{result: okResult}
	srv := newTestServer(t, p)

	w := do(t, srv, httptest.NewRequest(http.MethodPost, "/api/products/amount",
		strings.NewReader(`{"productId":1,"couponIds":null}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, p.lastReq.PromotionIDs)
}

func TestPostProductAmount_BadRequest(t *testing.T) {
	for _, body := range []string{
		``,
		`[]`,
		`{"couponIds":[3]}`,
		`{"productId":"2"}`,
		`{"productId":2,"couponIds":[0]}`,
		`{"productId":2,"couponIds":["a"]}`,
		`{"productId":2,"couponIds":[3]} garbage`,
		`{"productId":2}{"productId":3}`,
	} {
		t.Run(body, func(t *testing.T) {
			p := &mockPricer{result: okResult}
			srv := newTestServer(t, p)

			w := do(t, srv, httptest.NewRequest(http.MethodPost, "/api/products/amount", strings.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, p.calls)
		})
	}
}

func TestDecodeRequest_TrailingWhitespace(t *testing.T) {
	req, err := decodeRequest([]byte("{\"productId\":2,\"couponIds\":[3]}\n  "))
	require.NoError(t, err)
	assert.Equal(t, pricing.Request{ProductID: 2, PromotionIDs: []int64{3}}, req)
}

func TestDecodeRequest_TrailingData(t *testing.T) {
	_, err := decodeRequest([]byte(`{"productId":2,"couponIds":[3]} garbage`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected data")
}

func TestProductAmount_PricingErrors(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   int
	}{
		{err: pricing.ErrProductNotFound, wantStatus: http.StatusNotFound, wantCode: 40007},
		{err: pricing.ErrPriceBelowMinimum, wantStatus: http.StatusUnprocessableEntity, wantCode: 40001},
		{err: pricing.ErrPriceAboveMaximum, wantStatus: http.StatusUnprocessableEntity, wantCode: 40002},
		{err: pricing.ErrPromotionNotYetStarted, wantStatus: http.StatusUnprocessableEntity, wantCode: 40003},
		{err: pricing.ErrPromotionExpired, wantStatus: http.StatusUnprocessableEntity, wantCode: 40004},
		{err: pricing.ErrPromotionNotApplicable, wantStatus: http.StatusUnprocessableEntity, wantCode: 40005},
		{err: pricing.ErrDiscountExceedsPrice, wantStatus: http.StatusUnprocessableEntity, wantCode: 40006},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			srv := newTestServer(t, &mockPricer{err: tt.err})

			w := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/products/amount?productId=1&couponIds=1", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode[errorResponse](t, w)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.err.Error(), body.Message)
		})
	}
}

func TestProductAmount_InternalError(t *testing.T) {
	srv := newTestServer(t, &mockPricer{err: errors.Wrap(errors.New("connection refused"), "get product 1")})

	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/products/amount?productId=1", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[errorResponse](t, w)
	assert.Equal(t, 500, body.Code)
	assert.Equal(t, "internal server error", body.Message)
}

func TestProductAmount_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &mockPricer{result: okResult})

	w := do(t, srv, httptest.NewRequest(http.MethodDelete, "/api/products/amount", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
