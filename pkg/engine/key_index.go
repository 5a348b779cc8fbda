package engine

import (
	"reconciled/pkg/row"
)

// KeyIndex buckets rows by their normalized key-role value, preserving
// insertion order within a bucket so duplicate-key pairing (Cartesian per
// side) is deterministic.
type KeyIndex struct {
	buckets map[string][]row.Row
}

// BuildKeyIndex indexes rows by key role under the given comparator. A row
// whose key value is null was already discarded upstream (I2); callers are
// expected to have filtered those out before indexing.
func BuildKeyIndex(rows row.Rows, keyRole string, comparator string) *KeyIndex {
	idx := &KeyIndex{buckets: make(map[string][]row.Row, len(rows))}
	for _, r := range rows {
		k := NormalizeKey(r.Get(keyRole), comparator)
		idx.buckets[k] = append(idx.buckets[k], r)
	}
	return idx
}

func (idx *KeyIndex) lookup(key string) ([]row.Row, bool) {
	rs, ok := idx.buckets[key]
	return rs, ok
}

func (idx *KeyIndex) keys() []string {
	ks := make([]string, 0, len(idx.buckets))
	for k := range idx.buckets {
		ks = append(ks, k)
	}
	return ks
}
