// Package ids holds the identifier types shared by the marketplace packages.
// Each entity gets its own type so a product id can never be passed where a
// vendor id is expected.
package ids

import (
	"fmt"
	"strconv"
)

type UserID int64

type VendorID int64

type ProductID int64

type OrderID int64

func (id UserID) String() string    { return strconv.FormatInt(int64(id), 10) }
func (id VendorID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id ProductID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id OrderID) String() string   { return strconv.FormatInt(int64(id), 10) }

// ParseProductID parses a positive product id from a path parameter.
func ParseProductID(s string) (ProductID, error) {
	v, err := parsePositive(s)
	return ProductID(v), err
}

// ParseOrderID parses a positive order id from a path parameter.
func ParseOrderID(s string) (OrderID, error) {
	v, err := parsePositive(s)
	return OrderID(v), err
}

func parsePositive(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return v, nil
}

// ProductSet is a membership set of product ids.
type ProductSet map[ProductID]struct{}

func NewProductSet(ids ...ProductID) ProductSet {
	s := make(ProductSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s ProductSet) Has(id ProductID) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the members in no particular order.
func (s ProductSet) Slice() []ProductID {
	out := make([]ProductID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Int64s converts product ids for use as a SQL array parameter.
func Int64s[T ~int64](in []T) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
