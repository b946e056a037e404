package fees

import (
	"sort"

	"github.com/TejasK30/edulink-sub000/models"
)

// SurchargePct is added to the total whenever an installment plan is chosen.
const SurchargePct = 5

// MaxInstallments is the largest installment plan a student can choose.
const MaxInstallments = 4

// Catalog maps fee categories to their prices in a single fixed currency. It
// is passed by value into the calculator and the dues engine so alternate
// catalogs (per-college pricing) are a parameter, not a code change.
type Catalog struct {
	prices   map[models.FeeCategory]int64
	currency string
}

// NewCatalog copies prices into an immutable catalog.
func NewCatalog(prices map[models.FeeCategory]int64, currency string) Catalog {
	cp := make(map[models.FeeCategory]int64, len(prices))
	for cat, price := range prices {
		cp[cat] = price
	}
	return Catalog{prices: cp, currency: currency}
}

// DefaultCatalog returns the standard college fee catalog.
func DefaultCatalog() Catalog {
	return NewCatalog(map[models.FeeCategory]int64{
		models.FeeTuition: 50000,
		models.FeeExam:    2000,
		models.FeeHostel:  10000,
	}, "INR")
}

// Price looks up the catalog price for a category.
func (c Catalog) Price(cat models.FeeCategory) (int64, bool) {
	price, ok := c.prices[cat]
	return price, ok
}

// Currency returns the catalog's fixed currency code.
func (c Catalog) Currency() string {
	return c.currency
}

// Categories lists every category in the catalog in a stable order.
func (c Catalog) Categories() []models.FeeCategory {
	cats := make([]models.FeeCategory, 0, len(c.prices))
	for cat := range c.prices {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// TotalFor sums the catalog prices of the given categories. An unknown
// category is a validation error.
func (c Catalog) TotalFor(types []models.FeeCategory) (int64, error) {
	var total int64
	for _, cat := range types {
		price, ok := c.prices[cat]
		if !ok {
			return 0, ValidationError{Code: CodeUnknownFeeType, Message: "unknown fee type: " + string(cat)}
		}
		total += price
	}
	return total, nil
}
