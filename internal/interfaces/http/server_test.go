package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainauction/biddingengine/internal/application/orchestrator"
	"github.com/domainauction/biddingengine/internal/application/rules"
	"github.com/domainauction/biddingengine/internal/domain/auction"
)

type stubReloader struct {
	err error
}

func (r stubReloader) Reload(ctx context.Context) error { return r.err }

func newTestServer(reloader TableReloader) *Server {
	orch := orchestrator.New(nil, nil, rules.NewSelector(), nil, nil, zerolog.Nop())
	return NewServer(DefaultConfig(), orch, reloader, nil, zerolog.Nop())
}

func TestHandleDecide_ReturnsFinalDecisionJSON(t *testing.T) {
	s := newTestServer(nil)

	actx := auction.Context{
		Domain:          "example.com",
		Platform:        auction.PlatformGoDaddy,
		EstimatedValue:  1000,
		CurrentBid:      500,
		BudgetAvailable: 5000,
		NumBidders:      1,
		HoursRemaining:  3,
	}
	body, err := json.Marshal(actx)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/decide", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	s.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var decision auction.FinalDecision
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decision))
	assert.NotEmpty(t, decision.DecisionSource)
}

func TestHandleDecide_MalformedBodyReturns400(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/decide", bytes.NewReader([]byte("not json")))
	rr := httptest.NewRecorder()

	s.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleHealth_ReturnsHealthyStatus(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	s.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHandleTablesReload_NoReloaderReturns501(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/tables/reload", nil)
	rr := httptest.NewRecorder()

	s.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestHandleTablesReload_ReloaderErrorReturns500(t *testing.T) {
	s := newTestServer(stubReloader{err: assert.AnError})

	req := httptest.NewRequest(http.MethodPost, "/tables/reload", nil)
	rr := httptest.NewRecorder()

	s.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandleTablesReload_SuccessReturns200(t *testing.T) {
	s := newTestServer(stubReloader{})

	req := httptest.NewRequest(http.MethodPost, "/tables/reload", nil)
	rr := httptest.NewRecorder()

	s.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "reloaded", body["status"])
}
