// Package match provides identifier normalization and edit-distance scoring used to
// suggest the intended name when configuration refers to an unknown field or column.
package match
