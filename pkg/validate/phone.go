package validate

import (
	"context"
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// DefaultRegion is used to parse numbers written without a country code.
const DefaultRegion = "ZA"

var errInvalidPhone = errors.New("invalid phone number")

// Phone requires a possible and valid number in the default region.
func Phone(errText string) Validator {
	return func(_ context.Context, value string) error {
		if _, err := NormalisePhone(value); err != nil {
			return domain.NewErrorMessage(errText)
		}
		return nil
	}
}

// NormalisePhone parses value and formats it as E.164.
func NormalisePhone(value string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(value), DefaultRegion)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsPossibleNumber(num) || !phonenumbers.IsValidNumber(num) {
		return "", errInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
