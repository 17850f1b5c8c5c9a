package scraper

import "errors"

// Error categories surfaced by the fetch/parse stages. Callers match with
// errors.Is to decide how loudly to fail.
var (
	// ErrNetwork covers unreachable hosts, non-2xx responses and browser
	// navigation failures.
	ErrNetwork = errors.New("network error")
	// ErrParse covers a missing or malformed nutrient table.
	ErrParse = errors.New("parse error")
)
