package options

type FlagEnum int

const (
	FlagLenientCreators FlagEnum = 1 << iota // fall back to creator visibility when the parameter-count rules leave a tie
	FlagSkipFailedRows                       // batch operations drop failing rows instead of stopping at the first one
	FlagStrictColumns                        // reading fails on row columns no binding consumes

	FlagAll  FlagEnum = (1 << iota) - 1 // all flags combined
	FlagNone FlagEnum = 0               // no flags selected
)

// Has reports whether every flag of other is set in f.
func (f FlagEnum) Has(other FlagEnum) bool {
	return f&other == other
}
