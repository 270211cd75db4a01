package service

import "github.com/smallbiznis/foundr/internal/reference/domain"

// defaultCountries is the reference list offered on the sign-up forms.
var defaultCountries = []domain.Country{
	{Code: "US", Name: "United States"},
	{Code: "GB", Name: "United Kingdom"},
	{Code: "DE", Name: "Germany"},
	{Code: "FR", Name: "France"},
	{Code: "CA", Name: "Canada"},
	{Code: "AU", Name: "Australia"},
	{Code: "NL", Name: "Netherlands"},
	{Code: "PT", Name: "Portugal"},
	{Code: "ES", Name: "Spain"},
	{Code: "IT", Name: "Italy"},
	{Code: "BE", Name: "Belgium"},
	{Code: "CH", Name: "Switzerland"},
	{Code: "SE", Name: "Sweden"},
	{Code: "NO", Name: "Norway"},
	{Code: "DK", Name: "Denmark"},
	{Code: "IE", Name: "Ireland"},
	{Code: "FI", Name: "Finland"},
	{Code: "AT", Name: "Austria"},
	{Code: "PL", Name: "Poland"},
	{Code: "CZ", Name: "Czech Republic"},
}

func DefaultCountries() []domain.Country {
	out := make([]domain.Country, len(defaultCountries))
	copy(out, defaultCountries)
	return out
}
