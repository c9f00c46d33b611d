package form

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"scholarship-portal/internal/common/config"
)

const (
	defaultCGPAMin = 2.0
	defaultCGPAMax = 4.0
	dateLayout     = "2006-01-02"
)

// Rules holds the limits the form validates against.
type Rules struct {
	MaxFileSize       int64
	AllowedExtensions []string
	MinFamilyMembers  int
	MinActivities     int
	MinActivityLength int
	CGPAMin           float64
	CGPAMax           float64

	// Now is used for the date-of-birth check.
	Now func() time.Time
}

func DefaultRules() Rules {
	return Rules{
		MaxFileSize:       5 << 20,
		AllowedExtensions: []string{".pdf", ".jpg", ".jpeg", ".png"},
		MinFamilyMembers:  2,
		MinActivities:     2,
		MinActivityLength: 3,
		CGPAMin:           defaultCGPAMin,
		CGPAMax:           defaultCGPAMax,
		Now:               time.Now,
	}
}

// RulesFromConfig overlays the configured limits on DefaultRules. Zero values keep the default.
func RulesFromConfig(cfg config.FormConfig) Rules {
	r := DefaultRules()
	if cfg.MaxFileSizeMB > 0 {
		r.MaxFileSize = int64(cfg.MaxFileSizeMB) << 20
	}
	if len(cfg.AllowedExtensions) > 0 {
		r.AllowedExtensions = make([]string, 0, len(cfg.AllowedExtensions))
		for _, ext := range cfg.AllowedExtensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			r.AllowedExtensions = append(r.AllowedExtensions, ext)
		}
	}
	if cfg.MinFamilyMembers > 0 {
		r.MinFamilyMembers = cfg.MinFamilyMembers
	}
	if cfg.MinActivities > 0 {
		r.MinActivities = cfg.MinActivities
	}
	if cfg.MinActivityLength > 0 {
		r.MinActivityLength = cfg.MinActivityLength
	}
	if cfg.CGPAMax > 0 {
		r.CGPAMin = cfg.CGPAMin
		r.CGPAMax = cfg.CGPAMax
	}
	return r
}

func (r Rules) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Messages.

func RequiredMessage(f Field) string { return fmt.Sprintf("%s is required", f.Label()) }

func (r Rules) MinFamilyMessage() string {
	return fmt.Sprintf("Please fill in at least %d family members", r.MinFamilyMembers)
}

func (r Rules) MinActivitiesMessage() string {
	return fmt.Sprintf("Please fill in at least %d activities", r.MinActivities)
}

const (
	MsgPartialActivity  = "Please complete or remove partially filled activities"
	MsgMissingDocuments = "Please upload all required documents"
	MsgInvalidPhone     = "Phone number must be 10-11 digits"
	MsgInvalidIC        = "IC number must be 12 digits"
	MsgInvalidDOB       = "Date of birth must be a past date in YYYY-MM-DD format"
	MsgInvalidIncome    = "Please enter a valid amount"
	MsgInvalidAge       = "Please enter a valid age"
)

const maxFamilyAge = 120

func (r Rules) CGPAMessage() string {
	return fmt.Sprintf("CGPA must be between %.2f and %.2f", r.CGPAMin, r.CGPAMax)
}

func (r Rules) MinLengthMessage() string {
	return fmt.Sprintf("Must be at least %d characters", r.MinActivityLength)
}

func (r Rules) FileSizeMessage() string {
	return fmt.Sprintf("File size must be less than %dMB", r.MaxFileSize>>20)
}

func (r Rules) FileTypeMessage() string {
	names := make([]string, len(r.AllowedExtensions))
	for i, ext := range r.AllowedExtensions {
		names[i] = strings.ToUpper(strings.TrimPrefix(ext, "."))
	}
	return "Invalid file type. Accepted formats: " + strings.Join(names, ", ")
}

// ValidateField returns the inline error for a scalar field on blur, or "".
func (r Rules) ValidateField(f Field, value string) string {
	if blank(value) {
		if f.Required() {
			return RequiredMessage(f)
		}
		return ""
	}

	switch f {
	case FieldPhoneNumber:
		if n := len(FilterDigits(value)); n < 10 || n > 11 {
			return MsgInvalidPhone
		}
	case FieldICNumber:
		if len(FilterDigits(value)) != 12 || strings.Trim(value, "0123456789-") != "" {
			return MsgInvalidIC
		}
	case FieldDateOfBirth:
		dob, err := time.Parse(dateLayout, strings.TrimSpace(value))
		if err != nil || !dob.Before(r.now()) {
			return MsgInvalidDOB
		}
	case FieldHouseholdIncome:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return MsgInvalidIncome
		}
	case FieldCGPA:
		if !r.CGPAInRange(value) {
			return r.CGPAMessage()
		}
	}
	return ""
}

// CGPAInRange reports whether value parses to a number in [CGPAMin, CGPAMax].
func (r Rules) CGPAInRange(value string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}
	return v >= r.CGPAMin && v <= r.CGPAMax
}

// FamilyFilledCount counts rows with at least one non-blank cell.
func FamilyFilledCount(members []FamilyMember) int {
	n := 0
	for _, m := range members {
		if m.Filled() {
			n++
		}
	}
	return n
}

// ActivityFilled reports whether both cells are non-blank and long enough.
func (r Rules) ActivityFilled(a Activity) bool {
	return r.longEnough(a.Activity) && r.longEnough(a.Role)
}

// ActivityPartial reports a row with some but not all cells filled.
func ActivityPartial(a Activity) bool {
	return blank(a.Activity) != blank(a.Role)
}

// ActivitiesReady is the activity gate: enough filled rows and no partial ones.
func (r Rules) ActivitiesReady(acts []Activity) bool {
	filled := 0
	for _, a := range acts {
		if ActivityPartial(a) {
			return false
		}
		if r.ActivityFilled(a) {
			filled++
		}
	}
	return filled >= r.MinActivities
}

// activityMessage explains why ActivitiesReady is false.
func (r Rules) activityMessage(acts []Activity) string {
	for _, a := range acts {
		if ActivityPartial(a) {
			return MsgPartialActivity
		}
	}
	return r.MinActivitiesMessage()
}

// ActivityCellError returns the inline error for one activity cell, or "".
func (r Rules) ActivityCellError(value string) string {
	if blank(value) || r.longEnough(value) {
		return ""
	}
	return r.MinLengthMessage()
}

// FamilyCellError returns the inline error for one family member cell, or "".
func (r Rules) FamilyCellError(col Column, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	switch col {
	case ColumnAge:
		age, err := strconv.Atoi(value)
		if err != nil || age < 0 || age > maxFamilyAge {
			return MsgInvalidAge
		}
	case ColumnMonthlyIncome:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return MsgInvalidIncome
		}
	}
	return ""
}

func (r Rules) longEnough(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= r.MinActivityLength
}

// CheckFile returns the rejection message for a selected file, or "".
func (r Rules) CheckFile(f File) string {
	if f.Size() > r.MaxFileSize {
		return r.FileSizeMessage()
	}
	ext := strings.ToLower(filepath.Ext(f.Name()))
	for _, allowed := range r.AllowedExtensions {
		if ext == allowed {
			return ""
		}
	}
	return r.FileTypeMessage()
}
