package domain

import (
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// MatchVariant resolves the variant for the given option selections.
//
// A variant whose selected options equal selections exactly is returned.
// Otherwise, including when selections is empty, the first available variant
// is returned, or the first variant when none is available. An empty variant
// list is a caller bug and yields an EmptyCatalog error.
func MatchVariant(variants []Variant, selections map[string]string) (Variant, error) {
	if len(variants) == 0 {
		return Variant{}, apperrors.EmptyCatalog()
	}

	if len(selections) > 0 {
		for _, v := range variants {
			if selectionEquals(v.SelectedOptions, selections) {
				return v, nil
			}
		}
	}

	for _, v := range variants {
		if v.AvailableForSale {
			return v, nil
		}
	}
	return variants[0], nil
}

// selectionEquals compares a variant's option set with selections as sets.
func selectionEquals(opts []SelectedOption, selections map[string]string) bool {
	if len(opts) != len(selections) {
		return false
	}
	for _, so := range opts {
		if v, ok := selections[so.Name]; !ok || v != so.Value {
			return false
		}
	}
	return true
}
