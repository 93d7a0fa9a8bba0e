package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/rsitrader/internal/domain"
)

type stubProvider struct {
	klines []KlineData
	err    error
	limit  int
}

func (s *stubProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]KlineData, error) {
	s.limit = limit
	return s.klines, s.err
}

var btc = domain.Pair{From: "BTC", To: "USDT"}

func klines(closes ...int64) []KlineData {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]KlineData, len(closes))
	for i, c := range closes {
		open := start.Add(time.Duration(i) * time.Minute)
		out[i] = KlineData{OpenTime: open, CloseTime: open.Add(time.Minute - time.Millisecond), Close: decimal.NewFromInt(c)}
	}
	return out
}

func TestCollector_FetchRecent(t *testing.T) {
	provider := &stubProvider{klines: klines(10, 11, 12)}

	points, err := NewCollector(provider).FetchRecent(context.Background(), btc, "1m", 3)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 3, provider.limit)
	assert.True(t, points[2].Price.Equal(decimal.NewFromInt(12)))
	assert.True(t, points[0].Time.Before(points[2].Time))
}

func TestCollector_FetchRecentOrdersNewestLast(t *testing.T) {
	data := klines(10, 11, 12)
	// newest first, as Bybit returns them
	data[0], data[2] = data[2], data[0]

	points, err := NewCollector(&stubProvider{klines: data}).FetchRecent(context.Background(), btc, "1m", 3)
	require.NoError(t, err)
	assert.Equal(t, []decimal.Decimal{decimal.NewFromInt(10), decimal.NewFromInt(11), decimal.NewFromInt(12)},
		domain.Closes(points))
}

func TestCollector_FetchRecentFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
	}{
		{name: "provider error", provider: &stubProvider{err: errors.New("connection reset")}},
		{name: "empty window", provider: &stubProvider{}},
		{name: "partial window", provider: &stubProvider{klines: klines(10, 11)}},
		{name: "zero close", provider: &stubProvider{klines: klines(10, 0, 12)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCollector(tt.provider).FetchRecent(context.Background(), btc, "1m", 3)
			require.ErrorIs(t, err, domain.ErrDataUnavailable)
		})
	}
}

func TestCollector_FetchRecentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCollector(&stubProvider{err: context.Canceled}).FetchRecent(ctx, btc, "1m", 3)
	require.ErrorIs(t, err, context.Canceled)
}
