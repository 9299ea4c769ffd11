package jsonfield

import (
	"fmt"
	"strconv"
)

// Transform rewrites the left-hand side of a predicate, e.g. to descend into
// a key.
type Transform interface {
	Name() string
	SQL(args *Args, lhs string) string
}

// KeyTransform selects a member with ->. Keys made only of digits index
// arrays; anything else is an object key. The key is always bound.
type KeyTransform struct {
	Key string
}

func (t KeyTransform) Name() string { return "at_" + t.Key }

func (t KeyTransform) SQL(args *Args, lhs string) string {
	if isIndex(t.Key) {
		idx, _ := strconv.Atoi(t.Key)
		return fmt.Sprintf("(%s -> %s::int)", lhs, args.Add(idx))
	}
	return fmt.Sprintf("(%s -> %s::text)", lhs, args.Add(t.Key))
}

func isIndex(key string) bool {
	if key == "" || len(key) > 9 {
		return false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
