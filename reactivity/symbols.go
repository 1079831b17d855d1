package reactivity

import "github.com/cespare/xxhash/v2"

// Symbol is an opaque, process-unique property key. The registry treats
// the reserved symbols below like any other key in a target's key map;
// pointer identity keeps them from colliding with user keys.
type Symbol struct {
	name string
	id   uint64
}

func newSymbol(name string) *Symbol {
	return &Symbol{name: name, id: xxhash.Sum64String(name)}
}

func (s *Symbol) String() string { return s.name }

var (
	// IterateKey records iteration over a collection's values.
	IterateKey = newSymbol("iterate")
	// MapKeyIterateKey records iteration over a map's keys specifically.
	MapKeyIterateKey = newSymbol("Map keys iterate")
)

// LengthKey is the property key the proxy layer reports for array length
// reads and truncations.
const LengthKey = "length"
