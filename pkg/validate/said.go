package validate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// Sex values decoded from an SA ID number.
const (
	SexFemale = "Female"
	SexMale   = "Male"
)

var errInvalidSAID = errors.New("invalid SA ID number")

// SAID is the information encoded in a South African identity number.
type SAID struct {
	Number      string
	DateOfBirth time.Time
	Sex         string
}

// SAIDNumber requires a 13 digit number with a valid checksum and birth date.
func SAIDNumber(now func() time.Time, errText string) Validator {
	return func(_ context.Context, value string) error {
		if _, err := DecodeSAID(value, now()); err != nil {
			return domain.NewErrorMessage(errText)
		}
		return nil
	}
}

// DecodeSAID validates id and extracts its birth date and sex.
// The century is chosen so that the age at now falls in [0, 100).
func DecodeSAID(id string, now time.Time) (SAID, error) {
	id = strings.TrimSpace(id)
	if len(id) != 13 || !isDigits(id) {
		return SAID{}, errInvalidSAID
	}
	if LuhnCheckDigit(id[:12]) != int(id[12]-'0') {
		return SAID{}, errInvalidSAID
	}

	yy, _ := number(id[0:2])
	mm, _ := number(id[2:4])
	dd, _ := number(id[4:6])
	if mm < 1 || mm > 12 {
		return SAID{}, errInvalidSAID
	}

	year := 2000 + yy
	if time.Date(year, time.Month(mm), 1, 0, 0, 0, 0, time.UTC).After(now) {
		year = 1900 + yy
	}
	if dd < 1 || dd > DaysInMonth(year, mm) {
		return SAID{}, errInvalidSAID
	}
	dob := time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	if dob.After(now) {
		dob = dob.AddDate(-100, 0, 0)
	}

	sex := SexMale
	if seq, _ := number(id[6:10]); seq < 5000 {
		sex = SexFemale
	}

	return SAID{Number: id, DateOfBirth: dob, Sex: sex}, nil
}

// LuhnCheckDigit computes the digit that makes partial+digit pass the Luhn check.
func LuhnCheckDigit(partial string) int {
	return (10 - luhnSum(partial+"0")%10) % 10
}

// LuhnValid reports whether digits pass the Luhn check.
func LuhnValid(digits string) bool {
	return isDigits(digits) && luhnSum(digits)%10 == 0
}

func luhnSum(digits string) int {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum
}
