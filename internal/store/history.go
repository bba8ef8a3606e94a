package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/punchamoorthee/storeops/internal/domain"
	"github.com/shopspring/decimal"
)

var historyColumns = []string{"ENTRY_ID", "DATE", "PRODUCTS", "TOTAL_PRICE"}

// HistoryLedger stores one append-only CSV stream per customer under dir,
// named "<customerID>_history.csv". PRODUCTS holds the JSON-encoded line items.
type HistoryLedger struct {
	dir    string
	guards keyedGuards
}

func NewHistoryLedger(dir string) *HistoryLedger {
	return &HistoryLedger{dir: dir}
}

func (l *HistoryLedger) streamPath(customerID string) (string, error) {
	if customerID == "" || customerID == "." || customerID == ".." || strings.ContainsAny(customerID, `/\`) {
		return "", fmt.Errorf("%w: unusable customer id %q", ErrInvalidCustomer, customerID)
	}
	return filepath.Join(l.dir, customerID+"_history.csv"), nil
}

// Append writes entry as a single row at the end of the customer's stream,
// creating the file with its header on first use. Appends to the same stream
// are serialized.
func (l *HistoryLedger) Append(ctx context.Context, customerID string, entry domain.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := l.streamPath(customerID)
	if err != nil {
		return err
	}
	items, err := json.Marshal(entry.Items)
	if err != nil {
		return fmt.Errorf("encode line items: %w", err)
	}
	row := []string{
		entry.ID,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		string(items),
		entry.Total.StringFixed(2),
	}

	return l.guards.get(path).withWrite(func() error {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if info.Size() == 0 {
			w.Write(historyColumns)
		}
		w.Write(row)
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}

		if _, err := f.Write(buf.Bytes()); err != nil {
			return err
		}
		return f.Sync()
	})
}

// ReadAll yields the customer's entries oldest first, decoding rows straight
// from the file. The stream's lock is held until iteration ends, so the loop
// body must not touch the same stream again. Each range opens the
// file anew and picks up entries appended since. A customer without history
// yields nothing.
func (l *HistoryLedger) ReadAll(ctx context.Context, customerID string) iter.Seq2[domain.LedgerEntry, error] {
	return func(yield func(domain.LedgerEntry, error) bool) {
		path, err := l.streamPath(customerID)
		if err != nil {
			yield(domain.LedgerEntry{}, err)
			return
		}

		stopped := false
		err = l.guards.get(path).withRead(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			stopped, err = streamHistory(ctx, csv.NewReader(f), path, yield)
			return err
		})
		if stopped || errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			yield(domain.LedgerEntry{}, fmt.Errorf("read history %s: %w", customerID, err))
		}
	}
}

// streamHistory reports stopped when yield asked to end iteration.
func streamHistory(ctx context.Context, r *csv.Reader, path string, yield func(domain.LedgerEntry, error) bool) (stopped bool, err error) {
	header, err := r.Read()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMalformedFile, path, err)
	}
	if len(header) != len(historyColumns) {
		return false, fmt.Errorf("%w: %s: unexpected header %v", ErrMalformedFile, path, header)
	}
	r.ReuseRecord = true

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: %s: %v", ErrMalformedFile, path, err)
		}
		entry, err := parseHistoryRow(rec)
		if err != nil {
			return false, fmt.Errorf("%w: %s: %v", ErrMalformedFile, path, err)
		}
		if !yield(entry, nil) {
			return true, nil
		}
	}
}

// Entries collects ReadAll into a slice.
func (l *HistoryLedger) Entries(ctx context.Context, customerID string) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for entry, err := range l.ReadAll(ctx, customerID) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Delete drops a customer's whole stream. A missing stream is not an error.
func (l *HistoryLedger) Delete(ctx context.Context, customerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := l.streamPath(customerID)
	if err != nil {
		return err
	}
	return l.guards.get(path).withWrite(func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
}

func parseHistoryRow(rec []string) (domain.LedgerEntry, error) {
	ts, err := time.Parse(time.RFC3339Nano, rec[1])
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("entry %s: date: %v", rec[0], err)
	}
	var items []domain.LineItem
	if err := json.Unmarshal([]byte(rec[2]), &items); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("entry %s: products: %v", rec[0], err)
	}
	total, err := decimal.NewFromString(rec[3])
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("entry %s: total: %v", rec[0], err)
	}
	return domain.LedgerEntry{
		ID:        rec[0],
		Timestamp: ts,
		Items:     items,
		Total:     total,
	}, nil
}
