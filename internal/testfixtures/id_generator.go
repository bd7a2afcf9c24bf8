package testfixtures

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator hands out prefix-1, prefix-2, ... in place of UUIDs.
type IDGenerator struct {
	prefix string
	n      atomic.Uint64
}

func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) Next() string {
	return g.prefix + "-" + strconv.FormatUint(g.n.Add(1), 10)
}

// NextFunc is handed to services as their id generator.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}
