// Package orderjournal records order intents in a WAL so in-flight orders survive restarts.
package orderjournal

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"go.uber.org/zap"
)

const (
	// DefaultDir WAL directory used when none is configured.
	DefaultDir = "./wal/orders"

	intentKeyPrefix     = "order_intent_"
	walSegmentThreshold = 1000
	walMaxSegments      = 100
	walDirPermissions   = 0o755
)

// Status intent lifecycle: pending -> submitted -> recording -> recorded -> done, or failed.
type Status string

const (
	// StatusPending written before the order is sent to the venue.
	StatusPending Status = "pending"
	// StatusSubmitted the venue acknowledged the order.
	StatusSubmitted Status = "submitted"
	// StatusRecording the fill is about to be appended to the trade ledger.
	StatusRecording Status = "recording"
	// StatusRecorded the fill was appended to the trade ledger.
	StatusRecorded Status = "recorded"
	// StatusDone account state reflects the fill.
	StatusDone Status = "done"
	// StatusFailed rejected or never reached the venue.
	StatusFailed Status = "failed"
)

// Finished reports whether the intent needs no more work.
func (s Status) Finished() bool {
	return s == StatusDone || s == StatusFailed
}

// Intent a market order the bot decided to place. ID doubles as the client order id.
type Intent struct {
	ID           string          `json:"id"`
	Pair         string          `json:"pair"`
	Side         domain.Side     `json:"side"`
	Quantity     decimal.Decimal `json:"quantity"`
	Status       Status          `json:"status"`
	VenueID      string          `json:"venue_id,omitempty"`
	FilledQty    decimal.Decimal `json:"filled_quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
	RecordedAt   time.Time       `json:"recorded_at"`
	LedgerRows   int             `json:"ledger_rows"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Error        string          `json:"error,omitempty"`
}

// Journal WAL-backed order intents, latest record per id wins.
type Journal struct {
	wal     *gowal.Wal
	mu      sync.Mutex
	intents []*Intent
	index   map[string]*Intent
	now     func() time.Time
}

// Open opens (or creates) the journal in dir and replays existing intents.
func Open(dir string, l *zap.Logger) (*Journal, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if l == nil {
		l = zap.NewNop()
	}
	if err := os.MkdirAll(dir, walDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure WAL directory %s", dir)
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "orders_",
		SegmentThreshold: walSegmentThreshold,
		MaxSegments:      walMaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init order journal WAL")
	}

	j := &Journal{
		wal:   wal,
		index: make(map[string]*Intent),
		now:   time.Now,
	}

	for msg := range wal.Iterator() {
		if !strings.HasPrefix(msg.Key, intentKeyPrefix) {
			continue
		}

		var intent Intent
		if err := json.Unmarshal(msg.Value, &intent); err != nil {
			l.Error("failed to unmarshal order intent", zap.Error(err), zap.String("key", msg.Key))
			continue
		}

		if existing, ok := j.index[intent.ID]; ok {
			*existing = intent
			continue
		}
		intentCopy := intent
		j.intents = append(j.intents, &intentCopy)
		j.index[intent.ID] = &intentCopy
	}

	return j, nil
}

// Prepare records a new pending intent before anything is sent to the venue.
func (j *Journal) Prepare(pair domain.Pair, side domain.Side, quantity decimal.Decimal) (*Intent, error) {
	if !side.IsValid() {
		return nil, errors.Errorf("invalid side %q", side)
	}
	if !quantity.IsPositive() {
		return nil, errors.Errorf("quantity must be positive, got %s", quantity)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	intent := &Intent{
		ID:        uuid.New().String(),
		Pair:      pair.String(),
		Side:      side,
		Quantity:  quantity,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := j.persist(intent); err != nil {
		return nil, err
	}

	j.intents = append(j.intents, intent)
	j.index[intent.ID] = intent
	return intent, nil
}

// MarkSubmitted stores the venue order id.
func (j *Journal) MarkSubmitted(intent *Intent, venueID string) error {
	return j.transition(intent, StatusSubmitted, func(i *Intent) {
		if venueID != "" {
			i.VenueID = venueID
		}
	})
}

// MarkRecording stores the fill before it is appended to the ledger. ledgerRows is the row
// count of the partition of at, so a replay can tell whether the append happened.
func (j *Journal) MarkRecording(intent *Intent, filledQty, averagePrice decimal.Decimal, at time.Time, ledgerRows int) error {
	return j.transition(intent, StatusRecording, func(i *Intent) {
		i.FilledQty = filledQty
		i.AveragePrice = averagePrice
		i.RecordedAt = at
		i.LedgerRows = ledgerRows
	})
}

// MarkRecorded notes that the fill is in the ledger, so it is never appended twice.
func (j *Journal) MarkRecorded(intent *Intent, filledQty, averagePrice decimal.Decimal) error {
	return j.transition(intent, StatusRecorded, func(i *Intent) {
		i.FilledQty = filledQty
		i.AveragePrice = averagePrice
	})
}

// MarkDone closes the intent after account state was saved.
func (j *Journal) MarkDone(intent *Intent) error {
	return j.transition(intent, StatusDone, func(i *Intent) {
		i.Error = ""
	})
}

// MarkFailed closes the intent without a trade.
func (j *Journal) MarkFailed(intent *Intent, cause error) error {
	return j.transition(intent, StatusFailed, func(i *Intent) {
		if cause != nil {
			i.Error = cause.Error()
		} else {
			i.Error = ""
		}
	})
}

// Unfinished returns intents that still need reconciliation, oldest first.
func (j *Journal) Unfinished() []*Intent {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []*Intent
	for _, intent := range j.intents {
		if !intent.Status.Finished() {
			out = append(out, intent)
		}
	}
	return out
}

// Get returns the intent with the given id.
func (j *Journal) Get(id string) (*Intent, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	intent, ok := j.index[id]
	return intent, ok
}

// Close closes the underlying WAL.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.wal.Close()
}

func (j *Journal) transition(intent *Intent, status Status, mutate func(*Intent)) error {
	if intent == nil {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if intent.Status.Finished() {
		return errors.Errorf("intent %s is already %s", intent.ID, intent.Status)
	}

	next := *intent
	next.Status = status
	next.UpdatedAt = j.now()
	mutate(&next)

	if err := j.persist(&next); err != nil {
		return err
	}

	*intent = next
	if stored, ok := j.index[intent.ID]; ok && stored != intent {
		*stored = next
	}
	return nil
}

func (j *Journal) persist(intent *Intent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return errors.Wrap(err, "failed to marshal order intent")
	}
	key := fmt.Sprintf("%s%s", intentKeyPrefix, intent.ID)
	nextIndex := j.wal.CurrentIndex() + 1
	return errors.Wrap(j.wal.Write(nextIndex, key, data), "write order intent")
}
