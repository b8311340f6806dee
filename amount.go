package goWallet

import (
	"fmt"
	"math"
	"strconv"
)

// FormatAmount renders a positive amount with exactly two fractional digits,
// the form the backend expects for every monetary field.
func FormatAmount(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return "", fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if s == "0.00" {
		return "", fmt.Errorf("%w: %v rounds to zero", ErrInvalidAmount, v)
	}
	return s, nil
}
