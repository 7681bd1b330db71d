// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package wrapper

import (
	"strings"

	"github.com/biter777/countries"
)

// # Country Normalization

// CountryAlpha2 converts a provider-reported country name into its
// ISO-3166-1 alpha-2 code for the countries facet.
//
// Unknown names are passed through unchanged so a misspelled provider
// value still surfaces in the facet instead of silently disappearing.
func CountryAlpha2(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	country := countries.ByName(name)
	if country == countries.Unknown {
		return name
	}
	return country.Alpha2()
}
