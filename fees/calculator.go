package fees

import (
	"fmt"

	"github.com/TejasK30/edulink-sub000/models"
)

// InstallmentAmount splits total into n equal slices and returns the amount
// of slice k (1-based) plus the amount still outstanding after it is paid.
// Every slice is floor(total/n) except the last, which absorbs the rounding
// remainder, so the n slices always sum to total exactly.
func InstallmentAmount(total int64, n, k int) (amount, remaining int64, err error) {
	if total < 0 {
		return 0, 0, ValidationError{Code: CodeInvalidAmount, Message: fmt.Sprintf("total must not be negative, got %d", total)}
	}
	if n < 1 {
		return 0, 0, ValidationError{Code: CodeInvalidInstallmentCount, Message: fmt.Sprintf("installment count must be at least 1, got %d", n)}
	}
	if k < 1 || k > n {
		return 0, 0, ValidationError{Code: CodeInvalidInstallmentIndex, Message: fmt.Sprintf("installment index %d out of range 1..%d", k, n)}
	}
	if n == 1 {
		return total, 0, nil
	}
	base := total / int64(n)
	if k == n {
		return total - base*int64(n-1), 0, nil
	}
	return base, total - base*int64(k), nil
}

// RemainingAfter returns the amount still owed once completedCount slices of
// an n-slice plan over total have been paid.
func RemainingAfter(total int64, n, completedCount int) (int64, error) {
	if total < 0 {
		return 0, ValidationError{Code: CodeInvalidAmount, Message: fmt.Sprintf("total must not be negative, got %d", total)}
	}
	if n < 1 {
		return 0, ValidationError{Code: CodeInvalidInstallmentCount, Message: fmt.Sprintf("installment count must be at least 1, got %d", n)}
	}
	if completedCount < 0 || completedCount > n {
		return 0, ValidationError{Code: CodeInvalidCompletedCount, Message: fmt.Sprintf("completed count %d out of range 0..%d", completedCount, n)}
	}
	if completedCount == n {
		return 0, nil
	}
	return total - (total/int64(n))*int64(completedCount), nil
}

// WithSurcharge inflates total by the installment surcharge when a plan of
// more than one slice is chosen. Single payments carry no surcharge.
func WithSurcharge(total int64, n int) int64 {
	if n <= 1 {
		return total
	}
	return total * (100 + SurchargePct) / 100
}

// Allocate builds the per-category breakdown for one slice of amountToPay.
// Each category gets its catalog price pro-rata against the un-inflated
// total, and the last entry absorbs the integer remainder so the breakdown
// sums to amountToPay exactly.
func Allocate(c Catalog, types []models.FeeCategory, amountToPay, total int64) (models.FeeDetails, error) {
	if len(types) == 0 {
		return nil, ValidationError{Code: CodeUnknownFeeType, Message: "at least one fee type is required"}
	}
	details := make(models.FeeDetails, 0, len(types))
	var allocated int64
	for i, cat := range types {
		price, ok := c.Price(cat)
		if !ok {
			return nil, ValidationError{Code: CodeUnknownFeeType, Message: "unknown fee type: " + string(cat)}
		}
		var share int64
		if i == len(types)-1 {
			share = amountToPay - allocated
		} else if total > 0 {
			share = price * amountToPay / total
		}
		details = append(details, models.FeeDetail{FeeCategory: cat, Amount: share})
		allocated += share
	}
	return details, nil
}
