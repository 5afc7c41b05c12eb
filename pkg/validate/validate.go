// Package validate provides composable checks for free-text answers.
//
// A Validator rejects input by returning a *domain.ErrorMessage whose text is
// shown to the user. Any other error is treated as a failure of the check
// itself and is propagated to the driver.
package validate

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// Validator checks a raw user string.
type Validator func(ctx context.Context, value string) error

// Chain runs validators in order; the first rejection wins.
func Chain(validators ...Validator) Validator {
	return func(ctx context.Context, value string) error {
		for _, v := range validators {
			if v == nil {
				continue
			}
			if err := v(ctx, value); err != nil {
				return err
			}
		}
		return nil
	}
}

// NonEmpty rejects missing or all-whitespace input.
func NonEmpty(errText string) Validator {
	return func(_ context.Context, value string) error {
		if strings.TrimSpace(value) == "" {
			return domain.NewErrorMessage(errText)
		}
		return nil
	}
}

// Name requires at least two meaningful characters that are not all digits.
func Name(errText string) Validator {
	return func(_ context.Context, value string) error {
		cleaned := CleanName(value)
		if utf8.RuneCountInString(cleaned) < 2 || isDigits(strings.ReplaceAll(cleaned, " ", "")) {
			return domain.NewErrorMessage(errText)
		}
		return nil
	}
}

// CleanName keeps ASCII letters and digits, Latin-1 extended letters (U+00C0 to U+00FF) and whitespace.
func CleanName(value string) string {
	var b strings.Builder
	for _, r := range value {
		ascii := r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
		if ascii || (r >= 0xC0 && r <= 0xFF) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// MaxLength rejects input longer than limit characters.
func MaxLength(limit int, errText string) Validator {
	return func(_ context.Context, value string) error {
		if utf8.RuneCountInString(value) > limit {
			return domain.NewErrorMessage(errText)
		}
		return nil
	}
}

// OneOf accepts only the listed values, ignoring case.
func OneOf(values []string, errText string) Validator {
	return func(_ context.Context, value string) error {
		for _, v := range values {
			if strings.EqualFold(strings.TrimSpace(value), v) {
				return nil
			}
		}
		return domain.NewErrorMessage(errText)
	}
}

// MediaMime rejects inbound attachments whose mime type is not allowed.
// Messages without an attachment pass.
func MediaMime(md domain.TransportMetadata, allowed []string, errText string) Validator {
	return func(_ context.Context, _ string) error {
		media := md.Media()
		if media == nil {
			return nil
		}
		for _, m := range allowed {
			if strings.EqualFold(media.MimeType, m) {
				return nil
			}
		}
		return domain.NewErrorMessage(errText)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
