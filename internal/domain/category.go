package domain

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryFuel        Category = "fuel"
	CategoryLPG         Category = "lpg"
	CategoryLubricants  Category = "lubricants"
	CategoryRent        Category = "rent"
	CategoryUtilities   Category = "utilities"
	CategoryMaintenance Category = "maintenance"
	CategoryOther       Category = "other"
)

// AllCategories lists every Category in display order.
var AllCategories = []Category{
	CategoryFuel,
	CategoryLPG,
	CategoryLubricants,
	CategoryRent,
	CategoryUtilities,
	CategoryMaintenance,
	CategoryOther,
}

func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts any casing and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("ParseCategory: %q: %w", s, ErrInvalidFieldValue)
	}
	return c, nil
}
