// Package market implements the canonical market tag format
// EXCHANGE_PRIMARY_SECONDARY_[CONTRACT].
package market

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const separator = "_"

// Format is the human readable form of the tag layout.
const Format = "EXCHANGE_PRIMARY_SECONDARY_"

var (
	canonicalPattern = regexp.MustCompile(`^[A-Z0-9]+_[A-Z0-9]+_[A-Z0-9]+_([A-Z0-9]+)?$`)
	segmentPattern   = regexp.MustCompile(`^[A-Z0-9]+$`)

	// ErrInvalidTag is returned for tags that cannot be brought into
	// canonical form.
	ErrInvalidTag = errors.New("invalid market tag")
)

// Tag is a parsed market tag.
type Tag struct {
	Exchange  string
	Primary   string
	Secondary string
	Contract  string
}

// String renders the canonical tag. The trailing underscore after the
// secondary asset is always present.
func (t Tag) String() string {
	return t.Exchange + separator + t.Primary + separator + t.Secondary + separator + t.Contract
}

// IsContract reports whether the tag carries a contract qualifier.
func (t Tag) IsContract() bool {
	return t.Contract != ""
}

// Normalize brings a loosely formatted tag into canonical form: surrounding
// whitespace is trimmed, every segment is uppercased and the trailing
// underscore is added when missing.
func Normalize(raw string) (Tag, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Tag{}, fmt.Errorf("%w: empty tag", ErrInvalidTag)
	}
	// Unicode case mapping folds some non-ASCII letters into ASCII.
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] >= utf8.RuneSelf {
			return Tag{}, fmt.Errorf("%w: %q contains non-ASCII characters", ErrInvalidTag, raw)
		}
	}

	parts := strings.Split(strings.ToUpper(trimmed), separator)
	// A trailing separator produces an empty final element.
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 3 || len(parts) > 4 {
		return Tag{}, fmt.Errorf("%w: %q does not match %s format", ErrInvalidTag, raw, Format)
	}
	for _, part := range parts {
		if !segmentPattern.MatchString(part) {
			return Tag{}, fmt.Errorf("%w: %q does not match %s format", ErrInvalidTag, raw, Format)
		}
	}

	tag := Tag{Exchange: parts[0], Primary: parts[1], Secondary: parts[2]}
	if len(parts) == 4 {
		tag.Contract = parts[3]
	}
	return tag, nil
}

// Parse parses a tag that must already be canonical.
func Parse(s string) (Tag, error) {
	if err := Validate(s); err != nil {
		return Tag{}, err
	}
	return Normalize(s)
}

// Validate checks that s is exactly in canonical form.
func Validate(s string) error {
	if !canonicalPattern.MatchString(s) {
		return fmt.Errorf("%w: %q does not match %s format", ErrInvalidTag, s, Format)
	}
	return nil
}

// IsCanonical reports whether s is a canonical tag.
func IsCanonical(s string) bool {
	return canonicalPattern.MatchString(s)
}
