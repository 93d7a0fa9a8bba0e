package trader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/rsitrader/internal/domain"
)

var btc = domain.Pair{From: "BTC", To: "USDT"}

type binanceStub struct {
	createStatus int
	createBody   string
	queryStatus  int
	queryBody    string
	accountBody  string
}

func (s *binanceStub) serve(t *testing.T) *BinanceTrader {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/v3/order" && r.Method == http.MethodPost:
			w.WriteHeader(s.createStatus)
			_, _ = w.Write([]byte(s.createBody))
		case r.URL.Path == "/api/v3/order" && r.Method == http.MethodGet:
			w.WriteHeader(s.queryStatus)
			_, _ = w.Write([]byte(s.queryBody))
		case r.URL.Path == "/api/v3/account":
			_, _ = w.Write([]byte(s.accountBody))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client := binance.NewClient("key", "secret")
	client.BaseURL = srv.URL
	return NewBinanceTrader(client)
}

func queryOrder(status, executed, cumQuote string) string {
	return fmt.Sprintf(`{"symbol":"BTCUSDT","orderId":28,"clientOrderId":"cid-1","price":"0.00000000",
		"origQty":"0.01000000","executedQty":%q,"cummulativeQuoteQty":%q,"status":%q,"timeInForce":"GTC",
		"type":"MARKET","side":"BUY","stopPrice":"0","icebergQty":"0","time":1,"updateTime":1,"isWorking":true}`,
		executed, cumQuote, status)
}

const filledCreate = `{"symbol":"BTCUSDT","orderId":28,"orderListId":-1,"clientOrderId":"cid-1","transactTime":1,
	"price":"0.00000000","origQty":"0.01000000","executedQty":"0.01000000","cummulativeQuoteQty":"641.00000000",
	"status":"FILLED","timeInForce":"GTC","type":"MARKET","side":"BUY","fills":[
	{"price":"64000.00","qty":"0.00500000","commission":"0","commissionAsset":"BNB","tradeId":1},
	{"price":"64200.00","qty":"0.00500000","commission":"0","commissionAsset":"BNB","tradeId":2}]}`

func TestBinanceTrader_SubmitAndPollFilled(t *testing.T) {
	stub := &binanceStub{
		createStatus: http.StatusOK,
		createBody:   filledCreate,
		queryStatus:  http.StatusOK,
		queryBody:    queryOrder("FILLED", "0.01000000", "641.00000000"),
	}
	trader := stub.serve(t)
	ctx := context.Background()

	venueID, err := trader.SubmitMarketOrder(ctx, btc, domain.SideBuy, decimal.RequireFromString("0.01"), "cid-1")
	require.NoError(t, err)
	assert.Equal(t, "28", venueID)

	order, err := trader.PollStatus(ctx, btc, "cid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, order.Status)
	require.Len(t, order.Fills, 2)

	avg, err := order.AverageFillPrice()
	require.NoError(t, err)
	assert.True(t, avg.Equal(decimal.NewFromInt(64100)), "got %s", avg)
}

func TestBinanceTrader_PollFilledWithoutCachedFills(t *testing.T) {
	stub := &binanceStub{
		queryStatus: http.StatusOK,
		queryBody:   queryOrder("FILLED", "0.01000000", "641.00000000"),
	}

	order, err := stub.serve(t).PollStatus(context.Background(), btc, "cid-1")
	require.NoError(t, err)
	require.Len(t, order.Fills, 1)
	assert.True(t, order.Fills[0].Price.Equal(decimal.NewFromInt(64100)))
	assert.True(t, order.Fills[0].Quantity.Equal(decimal.RequireFromString("0.01")))
}

func TestBinanceTrader_PollStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		executed string
		quote    string
		want     domain.OrderStatus
		wantQty  string
	}{
		{name: "new", status: "NEW", executed: "0", quote: "0", want: domain.OrderStatusPending},
		{name: "partially filled", status: "PARTIALLY_FILLED", executed: "0.004", quote: "256", want: domain.OrderStatusPending},
		{name: "cancelled empty", status: "CANCELED", executed: "0", quote: "0", want: domain.OrderStatusRejected},
		{name: "rejected", status: "REJECTED", executed: "0", quote: "0", want: domain.OrderStatusRejected},
		{name: "expired partial", status: "EXPIRED", executed: "0.004", quote: "256", want: domain.OrderStatusFilled, wantQty: "0.004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &binanceStub{queryStatus: http.StatusOK, queryBody: queryOrder(tt.status, tt.executed, tt.quote)}

			order, err := stub.serve(t).PollStatus(context.Background(), btc, "cid-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, order.Status)
			if tt.wantQty != "" {
				assert.True(t, order.FilledQuantity().Equal(decimal.RequireFromString(tt.wantQty)))
			}
		})
	}
}

func TestBinanceTrader_Errors(t *testing.T) {
	t.Run("api error on submit is a rejection", func(t *testing.T) {
		stub := &binanceStub{
			createStatus: http.StatusBadRequest,
			createBody:   `{"code":-2010,"msg":"Account has insufficient balance for requested action."}`,
		}

		_, err := stub.serve(t).SubmitMarketOrder(context.Background(), btc, domain.SideSell,
			decimal.RequireFromString("0.01"), "cid-2")
		require.ErrorIs(t, err, domain.ErrOrderRejected)
	})

	t.Run("parameter error on submit is a rejection", func(t *testing.T) {
		stub := &binanceStub{
			createStatus: http.StatusBadRequest,
			createBody:   `{"code":-1121,"msg":"Invalid symbol."}`,
		}

		_, err := stub.serve(t).SubmitMarketOrder(context.Background(), btc, domain.SideBuy,
			decimal.RequireFromString("0.01"), "cid-4")
		require.ErrorIs(t, err, domain.ErrOrderRejected)
	})

	t.Run("unknown order", func(t *testing.T) {
		stub := &binanceStub{
			queryStatus: http.StatusBadRequest,
			queryBody:   `{"code":-2013,"msg":"Order does not exist."}`,
		}

		_, err := stub.serve(t).PollStatus(context.Background(), btc, "cid-3")
		require.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestBinanceTrader_GetBalance(t *testing.T) {
	stub := &binanceStub{
		accountBody: `{"makerCommission":0,"takerCommission":0,"buyerCommission":0,"sellerCommission":0,
			"canTrade":true,"canWithdraw":true,"canDeposit":true,"updateTime":1,"accountType":"SPOT",
			"balances":[{"asset":"BTC","free":"0.02000000","locked":"0"},{"asset":"USDT","free":"1000.5","locked":"0"}],
			"permissions":["SPOT"]}`,
	}
	trader := stub.serve(t)

	balance, err := trader.GetBalance(context.Background(), "BTC")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("0.02")))

	missing, err := trader.GetBalance(context.Background(), "ETH")
	require.NoError(t, err)
	assert.True(t, missing.IsZero())
}

func TestBinanceTrader_SubmitOutcomeUnknown(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"backend timeout", http.StatusServiceUnavailable,
			`{"code":-1007,"msg":"Timeout waiting for response from backend server. Send status unknown; execution status unknown."}`},
		{"unknown error", http.StatusInternalServerError,
			`{"code":-1006,"msg":"An unexpected response was received from the message bus. Execution status unknown."}`},
		{"internal error", http.StatusInternalServerError, `{"code":-1000,"msg":"An unknown error occurred while processing the request."}`},
		{"gateway without api body", http.StatusBadGateway, `<html>bad gateway</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &binanceStub{
				createStatus: tt.status,
				createBody:   tt.body,
				queryStatus:  http.StatusOK,
				queryBody:    queryOrder("FILLED", "0.01000000", "640.00000000"),
			}
			trader := stub.serve(t)

			_, err := trader.SubmitMarketOrder(context.Background(), btc, domain.SideBuy,
				decimal.RequireFromString("0.01"), "cid-5")
			require.Error(t, err)
			assert.NotErrorIs(t, err, domain.ErrOrderRejected)

			order, err := trader.PollStatus(context.Background(), btc, "cid-5")
			require.NoError(t, err)
			assert.Equal(t, domain.OrderStatusFilled, order.Status)
		})
	}
}
