// Package feehead manages the fee-head catalog and header matching.
package feehead

// FeeHead is a catalog entry demands and payments are booked against.
type FeeHead struct {
	ID   int64
	Name string
	Code string
}

// MiscellaneousDueName is the fallback head used when a dues sheet carries
// only a generic amount column.
const MiscellaneousDueName = "Miscellaneous Due"
