// Package web serves the local admin surface: health, metrics, account state, trades and an
// indicator SSE stream.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"github.com/vadiminshakov/rsitrader/internal/metrics"
	"github.com/vadiminshakov/rsitrader/internal/services/strategy/rsi"
	"go.uber.org/zap"
)

const (
	heartbeatInterval = 30 * time.Second
	shutdownTimeout   = 5 * time.Second
	dateLayout        = "2006-01-02"
)

type accountAdmin interface {
	State() (domain.AccountState, error)
	SetCanBuy(canBuy bool) (domain.AccountState, error)
}

type tradeReader interface {
	Records(day time.Time) ([]domain.TradeRecord, error)
}

type indicatorFeed interface {
	Last() (domain.IndicatorSnapshot, bool)
	Subscribe() chan domain.IndicatorSnapshot
	Unsubscribe(ch chan domain.IndicatorSnapshot)
}

// Server exposes HTTP endpoints for operating a running bot.
type Server struct {
	Addr string

	account accountAdmin
	trades  tradeReader
	feed    indicatorFeed
	l       *zap.Logger
	now     func() time.Time
}

// NewServer creates a new admin server instance.
func NewServer(addr string, account accountAdmin, trades tradeReader, feed indicatorFeed, l *zap.Logger) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{
		Addr:    addr,
		account: account,
		trades:  trades,
		feed:    feed,
		l:       l,
		now:     time.Now,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/state", s.handleGetState)
	r.Put("/state", s.handlePutState)
	r.Get("/trades", s.handleTrades)
	r.Get("/indicator/stream", s.handleIndicatorStream)

	return r
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.l.Info("admin server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "admin server")
	}
	return nil
}

type stateResponse struct {
	CanBuy      bool                       `json:"can_buy"`
	Mode        domain.Mode                `json:"mode"`
	Holdings    map[string]decimal.Decimal `json:"holdings"`
	LastOrderID string                     `json:"last_order_id,omitempty"`
	UpdatedAt   *time.Time                 `json:"updated_at,omitempty"`
}

func newStateResponse(state domain.AccountState) stateResponse {
	resp := stateResponse{
		CanBuy:      state.CanBuy,
		Mode:        state.Mode(),
		Holdings:    state.Holdings,
		LastOrderID: state.LastOrderID,
	}
	if resp.Holdings == nil {
		resp.Holdings = map[string]decimal.Decimal{}
	}
	if !state.UpdatedAt.IsZero() {
		ts := state.UpdatedAt
		resp.UpdatedAt = &ts
	}
	return resp
}

type tradeResponse struct {
	Symbol       string          `json:"symbol"`
	Side         domain.Side     `json:"side"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	state, err := s.account.State()
	if err != nil {
		s.l.Error("failed to load account state", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, newStateResponse(state))
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CanBuy *bool `json:"can_buy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}
	if req.CanBuy == nil {
		writeError(w, http.StatusBadRequest, errors.New("can_buy is required"))
		return
	}

	state, err := s.account.SetCanBuy(*req.CanBuy)
	switch {
	case errors.Is(err, rsi.ErrOrderInFlight):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		s.l.Error("failed to update account state", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, newStateResponse(state))
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	day := s.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, day.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.Errorf("date must be %s", dateLayout))
			return
		}
		day = parsed
	}

	records, err := s.trades.Records(day)
	if err != nil {
		s.l.Error("failed to read trades", zap.String("date", day.Format(dateLayout)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]tradeResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, tradeResponse{
			Symbol:       rec.Symbol,
			Side:         rec.Side,
			Quantity:     rec.Quantity,
			AveragePrice: rec.AverageFillPrice,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIndicatorStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.feed.Subscribe()
	defer s.feed.Unsubscribe(ch)

	if last, ok := s.feed.Last(); ok {
		if err := writeEvent(w, last); err != nil {
			s.l.Warn("indicator stream write failed", zap.Error(err))
			return
		}
		flusher.Flush()
	}

	// send a comment heartbeat so proxies keep the connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, snapshot); err != nil {
				s.l.Warn("indicator stream write failed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snapshot domain.IndicatorSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: indicator\ndata: %s\n\n", payload)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
