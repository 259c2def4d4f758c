// Package wwvb holds the WWVB time code: symbols, the minute frame layout
// and calendar arithmetic on decoded broadcast time.
package wwvb

// Symbol is one second of the WWVB amplitude code.
type Symbol int

const (
	Zero    Symbol = 0 // 200 ms of reduced carrier
	One     Symbol = 1 // 500 ms of reduced carrier
	Mark    Symbol = 2 // 800 ms of reduced carrier
	Invalid Symbol = 3 // timing does not match any symbol
)

// SymbolBits is the storage width of a Symbol.
const SymbolBits = 2

// String returns the one-character form used in symbol dumps.
func (s Symbol) String() string {
	switch s {
	case Zero:
		return "0"
	case One:
		return "1"
	case Mark:
		return "M"
	default:
		return "?"
	}
}

// IsBit reports whether s carries a binary value.
func (s Symbol) IsBit() bool {
	return s == Zero || s == One
}
