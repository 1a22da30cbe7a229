// Package diagnostic collects the structural problems found while resolving record
// metadata, so that every issue of a type is reported at once instead of the first one.
//
// Each error diagnostic may carry the typed error it stands for; the combined error
// returned by Diagnostics.Error keeps those reachable through errors.Is and errors.As.
package diagnostic
