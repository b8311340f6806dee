package goWallet

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const maxIDLength = 256

// invalidArgument wraps a validation failure so callers can match ErrInvalidArgument.
func invalidArgument(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
}

// requireID validates a path identifier and returns it trimmed and escaped.
func requireID(name, id string) (string, error) {
	id = strings.TrimSpace(id)
	err := validation.Errors{
		name: validation.Validate(id, validation.Required, validation.Length(1, maxIDLength)),
	}.Filter()
	if err != nil {
		return "", invalidArgument(err)
	}
	return url.PathEscape(id), nil
}

func validateEmail(email string) error {
	return invalidArgument(validation.Errors{
		"email": validation.Validate(email, validation.Required, validation.Length(3, 254), is.Email),
	}.Filter())
}

func validateReview(userID string, decision ReviewDecision) error {
	return invalidArgument(validation.Errors{
		"user_id":  validation.Validate(userID, validation.Required, validation.Length(1, maxIDLength)),
		"decision": validation.Validate(decision, validation.Required, validation.In(ReviewApproved, ReviewRejected)),
	}.Filter())
}

func validateGoalName(name string) error {
	return invalidArgument(validation.Errors{
		"goal_name": validation.Validate(name, validation.Required, validation.Length(1, 100)),
	}.Filter())
}

// Validate checks the fields of a loan application that are not amounts.
// Amounts are checked by FormatAmount.
func (a LoanApplication) Validate() error {
	if math.IsNaN(a.InterestRate) || math.IsInf(a.InterestRate, 0) {
		return invalidArgument(fmt.Errorf("interest_rate: must be finite"))
	}
	return invalidArgument(validation.ValidateStruct(&a,
		validation.Field(&a.WalletID, validation.Required, validation.Length(1, maxIDLength)),
		validation.Field(&a.InterestRate, validation.Min(0.0)),
	))
}
