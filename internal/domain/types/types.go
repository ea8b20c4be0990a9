// Package types contains common types used across the application
package types

// Entry represents one row of a ranking, 1-indexed.
type Entry struct {
	Rank  int     `json:"rank"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}
