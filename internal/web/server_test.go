package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"github.com/vadiminshakov/rsitrader/internal/events"
	"github.com/vadiminshakov/rsitrader/internal/services/strategy/rsi"
	"github.com/vadiminshakov/rsitrader/internal/storage/ledger"
)

type fakeAccount struct {
	state    domain.AccountState
	inFlight bool
}

func (f *fakeAccount) State() (domain.AccountState, error) {
	return f.state, nil
}

func (f *fakeAccount) SetCanBuy(canBuy bool) (domain.AccountState, error) {
	if f.inFlight {
		return domain.AccountState{}, errors.Wrap(rsi.ErrOrderInFlight, "order abc")
	}
	f.state.CanBuy = canBuy
	return f.state, nil
}

var testDay = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *fakeAccount, *ledger.Ledger, *events.IndicatorBroadcaster) {
	t.Helper()

	account := &fakeAccount{state: domain.NewAccountState()}
	trades, err := ledger.New(t.TempDir(), time.UTC)
	require.NoError(t, err)
	feed := events.NewIndicatorBroadcaster(8)

	s := NewServer("127.0.0.1:0", account, trades, feed, nil)
	s.now = func() time.Time { return testDay }
	return s, account, trades, feed
}

func TestServer_Health(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rsitrader_")
}

func TestServer_GetAndPutState(t *testing.T) {
	s, account, _, _ := newTestServer(t)
	account.state.Holdings["BTC"] = decimal.RequireFromString("0.01")
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.CanBuy)
	assert.Equal(t, domain.ModeBuying, got.Mode)
	assert.True(t, got.Holdings["BTC"].Equal(decimal.RequireFromString("0.01")))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/state", strings.NewReader(`{"can_buy": false}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, account.state.CanBuy)
}

func TestServer_PutStateErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		inFlight bool
		code     int
	}{
		{name: "invalid json", body: `{`, code: http.StatusBadRequest},
		{name: "missing field", body: `{}`, code: http.StatusBadRequest},
		{name: "order in flight", body: `{"can_buy": true}`, inFlight: true, code: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, account, _, _ := newTestServer(t)
			account.inFlight = tt.inFlight

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/state", strings.NewReader(tt.body)))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestServer_Trades(t *testing.T) {
	s, _, trades, _ := newTestServer(t)
	require.NoError(t, trades.Append(domain.TradeRecord{
		Symbol:           "BTCUSDT",
		Side:             domain.SideBuy,
		Quantity:         decimal.RequireFromString("0.01"),
		AverageFillPrice: decimal.RequireFromString("64100"),
		Timestamp:        testDay,
	}))
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trades", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"symbol":"BTCUSDT","side":"buy","quantity":"0.01","average_price":"64100"}]`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trades?date=2026-05-03", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trades?date=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_IndicatorStream(t *testing.T) {
	s, _, _, feed := newTestServer(t)
	feed.Publish(domain.IndicatorSnapshot{Timestamp: testDay, Pair: "BTC_USDT", Value: 24.5, Previous: 30, Mode: domain.ModeBuying, Decision: "buy"})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/indicator/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: indicator\n", event)

	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(data, "data: "))

	var snapshot domain.IndicatorSnapshot
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(data), "data: ")), &snapshot))
	assert.Equal(t, 24.5, snapshot.Value)
	assert.Equal(t, "buy", snapshot.Decision)
}
