package validate

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CalendarDay requires a digit string forming a legal day of the given year and month.
func CalendarDay(year, month int, errText string) Validator {
	return func(_ context.Context, value string) error {
		day, ok := number(value)
		if !ok || day < 1 || month < 1 || month > 12 || day > DaysInMonth(year, month) {
			return domain.NewErrorMessage(errText)
		}
		return nil
	}
}

// Year requires a year no later than now and no more than maxAge years ago.
func Year(now time.Time, maxAge int, errText string) Validator {
	return func(_ context.Context, value string) error {
		y, ok := number(value)
		if !ok || y > now.Year() || y < now.Year()-maxAge {
			return domain.NewErrorMessage(errText)
		}
		return nil
	}
}

// Month requires 1..12 and, for the current year, a month that is not in the future.
func Month(year int, now time.Time, errText string) Validator {
	return func(_ context.Context, value string) error {
		m, ok := number(value)
		if !ok || m < 1 || m > 12 {
			return domain.NewErrorMessage(errText)
		}
		if year == now.Year() && m > int(now.Month()) {
			return domain.NewErrorMessage(errText)
		}
		return nil
	}
}

// DayOfBirth requires a legal day that, together with year and month, is not in the future.
func DayOfBirth(year, month int, now time.Time, errText string) Validator {
	legal := CalendarDay(year, month, errText)
	return func(ctx context.Context, value string) error {
		if err := legal(ctx, value); err != nil {
			return err
		}
		day, _ := number(value)
		dob := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		if dob.After(now) {
			return domain.NewErrorMessage(errText)
		}
		return nil
	}
}

// Age returns the completed years between dob and now.
func Age(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func number(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if !isDigits(value) {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	return n, err == nil
}
