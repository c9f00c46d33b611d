package form

import (
	"strconv"
	"strings"
)

// FilterCGPA filters a keystroke into the CGPA field. Characters other than
// digits and '.' are dropped; a second '.' or a value above 4.00 leaves prev
// unchanged.
func FilterCGPA(prev, raw string) string {
	return filterCGPA(prev, raw, defaultCGPAMax)
}

func filterCGPA(prev, raw string, max float64) string {
	filtered := FilterDecimal(raw)
	if strings.Count(filtered, ".") > 1 {
		return prev
	}
	if v, err := strconv.ParseFloat(filtered, 64); err == nil && v > max {
		return prev
	}
	return filtered
}

// FilterDecimal keeps digits and '.' only.
func FilterDecimal(raw string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)
}

// FilterDigits keeps ASCII digits only.
func FilterDigits(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// filterFor applies the input filter bound to a scalar field.
func filterFor(f Field, prev, raw string, r Rules) string {
	switch f {
	case FieldCGPA:
		return filterCGPA(prev, raw, r.CGPAMax)
	case FieldHouseholdIncome:
		return FilterDecimal(raw)
	case FieldBumiputeraStatus:
		return normalizeBool(raw)
	}
	return raw
}

// filterColumn applies the input filter bound to a table column.
func filterColumn(col Column, raw string) string {
	switch col {
	case ColumnAge:
		return FilterDigits(raw)
	case ColumnMonthlyIncome:
		return FilterDecimal(raw)
	}
	return raw
}

func normalizeBool(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1", "on":
		return "true"
	case "":
		return ""
	default:
		return "false"
	}
}
