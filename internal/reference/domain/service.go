package domain

import "context"

type SeedResult struct {
	Inserted int  `json:"inserted"`
	Skipped  bool `json:"skipped"`
}

type Service interface {
	ListCountries(ctx context.Context) ([]Country, error)
	// ResolveCountry maps a numeric id, ISO code or English name onto a known
	// country. Unknown values resolve to nil without error.
	ResolveCountry(ctx context.Context, value string) (*Country, error)
	// SeedCountries inserts the default list only when the table is empty.
	SeedCountries(ctx context.Context) (SeedResult, error)
}
