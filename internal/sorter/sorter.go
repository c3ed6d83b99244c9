package sorter

import (
	"bytes"
	"sort"

	"github.com/oicur0t/sensorconv/internal/codec"
)

// Order is the sort direction
type Order int

const (
	Ascending Order = iota
	Descending
)

// ParseOrder maps a job descriptor value to an Order. Only the exact
// string "DESC" selects descending; every other value, typos included,
// sorts ascending. known reports whether the value was "ASC" or "DESC".
func ParseOrder(s string) (order Order, known bool) {
	switch s {
	case "DESC":
		return Descending, true
	case "ASC":
		return Ascending, true
	default:
		return Ascending, false
	}
}

func (o Order) String() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}

// Comparator orders records by the raw bytes of an inclusive key range.
//
// The comparison is unsigned and lexicographic over the stored bytes, not
// numeric: little-endian integers and floats do not sort by value unless
// the range is a single byte. Text fields compare like memcmp, including
// the bytes after their terminator.
type Comparator struct {
	start int
	end   int
}

// NewComparator validates the range against the record layout
func NewComparator(start, end int) (*Comparator, error) {
	if err := codec.CheckRange(start, end); err != nil {
		return nil, err
	}
	return &Comparator{start: start, end: end}, nil
}

// Compare returns -1, 0 or 1 as a's key is less than, equal to or greater than b's
func (c *Comparator) Compare(a, b *codec.Record) int {
	return bytes.Compare(a.Bytes()[c.start:c.end+1], b.Bytes()[c.start:c.end+1])
}

// Sort orders records in place. Records with equal keys end up in no
// particular order.
func Sort(records []codec.Record, cmp *Comparator, order Order) {
	if len(records) < 2 {
		return
	}
	sort.Slice(records, func(i, j int) bool {
		r := cmp.Compare(&records[i], &records[j])
		if order == Descending {
			return r > 0
		}
		return r < 0
	})
}

// IsSorted reports whether no adjacent pair violates order
func IsSorted(records []codec.Record, cmp *Comparator, order Order) bool {
	for i := 1; i < len(records); i++ {
		r := cmp.Compare(&records[i-1], &records[i])
		if order == Descending && r < 0 {
			return false
		}
		if order == Ascending && r > 0 {
			return false
		}
	}
	return true
}
