package common

// Unpack2 returns the first two elements of s, zero values standing in for missing ones.
func Unpack2[S ~[]E, E any](s S) (first, second E) {
	switch len(s) {
	case 0:
	case 1:
		first = s[0]
	default:
		first, second = s[0], s[1]
	}

	return first, second
}

type number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// InRange reports whether lo <= v <= hi.
func InRange[T number](lo, v, hi T) bool {
	return lo <= v && v <= hi
}
