package models

import (
	"math"
	"strconv"
	"strings"

	dErrors "permitflow/pkg/domain-errors"
)

// ParseDecimal parses an area, cost or amount. Blank input is nil, never zero.
// Thousands separators and a leading peso sign are accepted.
func ParseDecimal(name string, f Field) (*float64, error) {
	s := f.Trimmed()
	if s == "" {
		return nil, nil
	}
	s = strings.TrimPrefix(s, "₱")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, dErrors.New(dErrors.CodeValidation, name+" must be a number")
	}
	if v < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, name+" must not be negative")
	}
	return &v, nil
}

// ParseCount parses a whole-number count such as employees or units.
// Blank input is nil, never zero.
func ParseCount(name string, f Field) (*int64, error) {
	s := strings.ReplaceAll(f.Trimmed(), ",", "")
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, name+" must be a whole number")
	}
	if v < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, name+" must not be negative")
	}
	return &v, nil
}

// ParseYesNo parses an optional yes/no answer.
func ParseYesNo(name string, f Field) (*bool, error) {
	switch strings.ToLower(f.Trimmed()) {
	case "":
		return nil, nil
	case "yes", "y", "true", "1":
		v := true
		return &v, nil
	case "no", "n", "false", "0":
		v := false
		return &v, nil
	}
	return nil, dErrors.New(dErrors.CodeValidation, name+" must be yes or no")
}

// FormatYesNo renders a stored yes/no answer back into form text.
func FormatYesNo(v *bool) Field {
	switch {
	case v == nil:
		return ""
	case *v:
		return "yes"
	}
	return "no"
}
