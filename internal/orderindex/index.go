package orderindex

import (
	"strings"

	"recon-ledger/internal/domain"
)

// segmentSeparators split a stored tracking field that carries several codes,
// e.g. "TH999, TH1000" or "KEX123/KEX124".
const segmentSeparators = ",;/| \t"

// Index is a read-only lookup structure over one order snapshot. It is built
// once per session and never mutated afterwards.
type Index struct {
	orders    []domain.Order
	byID      map[string]int
	byToken   map[string]int
	bySegment map[string]int
}

// New builds the index. When two orders share a token the earlier order in
// the snapshot wins, so lookups are deterministic for a given snapshot.
func New(orders []domain.Order) *Index {
	idx := &Index{
		orders:    orders,
		byID:      make(map[string]int, len(orders)),
		byToken:   make(map[string]int, len(orders)),
		bySegment: make(map[string]int, len(orders)),
	}

	for i, o := range orders {
		if _, exists := idx.byID[o.ID]; !exists {
			idx.byID[o.ID] = i
		}
		for _, tn := range o.TrackingNumbers {
			token := strings.TrimSpace(tn)
			if token == "" {
				continue
			}
			if _, exists := idx.byToken[token]; !exists {
				idx.byToken[token] = i
			}
			for _, seg := range Segments(token) {
				if _, exists := idx.bySegment[seg]; !exists {
					idx.bySegment[seg] = i
				}
			}
		}
	}

	return idx
}

// Lookup resolves an external reference: exact order id first, then a whole
// tracking number, then an exact segment of a multi-code tracking field.
// Substrings never match. Returns nil when nothing matches.
func (idx *Index) Lookup(ref string) *domain.Order {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if i, ok := idx.byID[ref]; ok {
		return &idx.orders[i]
	}
	if i, ok := idx.byToken[ref]; ok {
		return &idx.orders[i]
	}
	if i, ok := idx.bySegment[ref]; ok {
		return &idx.orders[i]
	}
	return nil
}

// Orders returns the snapshot in input order.
func (idx *Index) Orders() []domain.Order {
	return idx.orders
}

func (idx *Index) Len() int {
	return len(idx.orders)
}

// Segments tokenizes a tracking field into its individual codes.
func Segments(tracking string) []string {
	return strings.FieldsFunc(tracking, func(r rune) bool {
		return strings.ContainsRune(segmentSeparators, r)
	})
}
