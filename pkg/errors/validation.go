package errors

import (
	"strings"
	"unicode"
)

// ValidateFormat checks an output format before it is used as a file
// extension and as part of a renderer flag.
//
// The rules are intentionally conservative:
//   - No empty formats
//   - Letters and digits only (no dots, separators or whitespace)
//   - Maximum length of 16 characters
func ValidateFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}

	if len(format) > 16 {
		return New(ErrCodeInvalidFormat, "format too long (max 16 characters): %q", format)
	}

	for _, r := range format {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return New(ErrCodeInvalidFormat, "format contains invalid character %q: %q", r, format)
		}
	}

	return nil
}

// ValidateParamName validates a renderer flag name taken from the "params"
// option. The name is passed to the renderer as "--<name>" so it must not
// smuggle in a second argument or an extra dash prefix.
func ValidateParamName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidParam, "parameter name cannot be empty")
	}

	if strings.HasPrefix(name, "-") {
		return New(ErrCodeInvalidParam, "parameter name must not start with a dash: %q", name)
	}

	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return New(ErrCodeInvalidParam, "parameter name contains whitespace or control characters: %q", name)
		}
	}

	if strings.Contains(name, "=") {
		return New(ErrCodeInvalidParam, "parameter name contains '=': %q", name)
	}

	return nil
}
