package journal

import "fmt"

// Key schema:
//
//   trade:<timestamp>:<id> → Trade (JSON)
//
// Timestamp and id are zero-padded so a plain lexicographic scan walks the
// journal in execution order; reverse iteration yields most-recent-first.

const prefixTrade = "trade:"

func tradeKey(timestamp int64, tradeID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%020d", prefixTrade, timestamp, tradeID))
}

func tradePrefix() []byte {
	return []byte(prefixTrade)
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
