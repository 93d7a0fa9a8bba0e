// Package ledger appends completed trades to one CSV file per calendar day.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
)

const (
	// DefaultDir ledger directory used when none is configured.
	DefaultDir = "trades"
	dayLayout  = "2006-01-02"
)

var header = []string{"symbol", "side", "quantity", "average_price"}

// Ledger append-only trade ledger partitioned by the record date.
type Ledger struct {
	dir string
	loc *time.Location
	mu  sync.Mutex
}

// New creates a ledger rooted at dir. Partitions follow calendar days in loc (local time if nil).
func New(dir string, loc *time.Location) (*Ledger, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if loc == nil {
		loc = time.Local
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create ledger dir")
	}

	return &Ledger{dir: dir, loc: loc}, nil
}

// PartitionPath file holding the records of the given day.
func (l *Ledger) PartitionPath(day time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("%s.csv", day.In(l.loc).Format(dayLayout)))
}

// Append writes one record, preceded by the header when the partition is new.
func (l *Ledger) Append(rec domain.TradeRecord) error {
	if rec.Symbol == "" || !rec.Side.IsValid() {
		return errors.Errorf("invalid trade record %q/%q", rec.Symbol, rec.Side)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.PartitionPath(rec.Timestamp)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open ledger partition %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat ledger partition")
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return errors.Wrap(err, "write ledger header")
		}
	}
	row := []string{rec.Symbol, rec.Side.String(), rec.Quantity.String(), rec.AverageFillPrice.String()}
	if err := w.Write(row); err != nil {
		return errors.Wrap(err, "write ledger row")
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flush ledger row")
	}

	return errors.Wrap(f.Sync(), "sync ledger partition")
}

// Records reads back the partition of the given day. A missing partition yields no records.
func (l *Ledger) Records(day time.Time) ([]domain.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.PartitionPath(day)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "open ledger partition %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	var records []domain.TradeRecord
	for line := 0; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read ledger partition %s", path)
		}
		if line == 0 {
			continue
		}

		rec, err := parseRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "ledger %s line %d", path, line+1)
		}
		rec.Timestamp = day
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(row []string) (domain.TradeRecord, error) {
	side, err := domain.ParseSide(row[1])
	if err != nil {
		return domain.TradeRecord{}, err
	}
	qty, err := decimal.NewFromString(row[2])
	if err != nil {
		return domain.TradeRecord{}, errors.Wrap(err, "parse quantity")
	}
	price, err := decimal.NewFromString(row[3])
	if err != nil {
		return domain.TradeRecord{}, errors.Wrap(err, "parse average price")
	}

	return domain.TradeRecord{
		Symbol:           row[0],
		Side:             side,
		Quantity:         qty,
		AverageFillPrice: price,
	}, nil
}
