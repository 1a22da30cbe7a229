package binding

//go:generate go tool stringer -type=Strategy,DefaultSource -output=strategy_string.go

// Strategy is how a field value is obtained on write and applied on read.
type Strategy int

const (
	StrategyField      Strategy = iota // direct field access
	StrategyAccessor                   // get/set methods
	StrategyExpression                 // computed by a CEL expression over the other fields
	StrategyHandler                    // a named registry codec replaces type lookup
)

// DefaultSource tells which declaration supplied a binding's default.
type DefaultSource int

const (
	DefaultNone DefaultSource = iota
	DefaultFromType
	DefaultFromField
	DefaultFromCall
)
