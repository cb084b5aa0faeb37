// Package journal persists executed trades to a local pebble database.
// It is strictly caller-side bookkeeping: engine state (the resting book)
// is never written here.
package journal

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/booklab-dev/matchbook/pkg/engine"
)

type Journal struct {
	db *pebble.DB
}

func Open(path string) (*Journal, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open trade journal: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Append persists one executed trade. NoSync: trade history is a
// convenience record, losing the tail on crash is acceptable.
func (j *Journal) Append(t engine.Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade %d: %w", t.ID, err)
	}
	key := tradeKey(t.Timestamp, t.ID)
	if err := j.db.Set(key, data, pebble.NoSync); err != nil {
		return fmt.Errorf("append trade %d: %w", t.ID, err)
	}
	return nil
}

// Recent returns up to limit trades, most recent first.
func (j *Journal) Recent(limit int) ([]engine.Trade, error) {
	prefix := tradePrefix()
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	defer iter.Close()

	var trades []engine.Trade
	for iter.Last(); iter.Valid() && len(trades) < limit; iter.Prev() {
		var t engine.Trade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			continue // skip corrupt entries
		}
		trades = append(trades, t)
	}
	return trades, nil
}
