package form

import "fmt"

// Step is a position in the application wizard.
type Step int

const (
	StepPersonal Step = iota
	StepAcademic
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepPersonal:
		return "personal"
	case StepAcademic:
		return "academic"
	case StepSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Field identifies every value the form holds. Table and document fields are
// included so errors on them share one key space.
type Field int

const (
	FieldFullName Field = iota + 1
	FieldPhoneNumber
	FieldDateOfBirth
	FieldICNumber
	FieldNationality
	FieldBumiputeraStatus
	FieldGender
	FieldAddress
	FieldHouseholdIncome

	FieldUniversity
	FieldMajor
	FieldYearOfStudy
	FieldCGPA
	FieldExpectedGraduation
	FieldQualification

	FieldFamilyMembers
	FieldActivities

	FieldTranscript
	FieldPayslip
	FieldIC
)

type fieldInfo struct {
	key      string
	label    string
	step     Step
	required bool
}

var fields = map[Field]fieldInfo{
	FieldFullName:         {"fullName", "Full name", StepPersonal, true},
	FieldPhoneNumber:      {"phoneNumber", "Phone number", StepPersonal, true},
	FieldDateOfBirth:      {"dateOfBirth", "Date of birth", StepPersonal, true},
	FieldICNumber:         {"icNumber", "IC number", StepPersonal, true},
	FieldNationality:      {"nationality", "Nationality", StepPersonal, true},
	FieldBumiputeraStatus: {"bumiputeraStatus", "Bumiputera status", StepPersonal, false},
	FieldGender:           {"gender", "Gender", StepPersonal, true},
	FieldAddress:          {"address", "Address", StepPersonal, true},
	FieldHouseholdIncome:  {"householdIncome", "Household income", StepPersonal, true},

	FieldUniversity:         {"university", "University", StepAcademic, true},
	FieldMajor:              {"major", "Major", StepAcademic, true},
	FieldYearOfStudy:        {"yearOfStudy", "Year of study", StepAcademic, true},
	FieldCGPA:               {"cgpa", "CGPA", StepAcademic, true},
	FieldExpectedGraduation: {"expectedGraduation", "Expected graduation", StepAcademic, true},
	FieldQualification:      {"qualification", "Qualification", StepAcademic, true},

	FieldFamilyMembers: {"familyMembers", "Family members", StepPersonal, false},
	FieldActivities:    {"activities", "Activities", StepAcademic, false},

	FieldTranscript: {"transcript", "Transcript", StepAcademic, false},
	FieldPayslip:    {"payslip", "Payslip", StepAcademic, false},
	FieldIC:         {"ic", "IC copy", StepAcademic, false},
}

// scalarFields lists the fields held in Draft.Values, in display order.
var scalarFields = []Field{
	FieldFullName, FieldPhoneNumber, FieldDateOfBirth, FieldICNumber, FieldNationality,
	FieldBumiputeraStatus, FieldGender, FieldAddress, FieldHouseholdIncome,
	FieldUniversity, FieldMajor, FieldYearOfStudy, FieldCGPA, FieldExpectedGraduation,
	FieldQualification,
}

func (f Field) String() string {
	if info, ok := fields[f]; ok {
		return info.key
	}
	return fmt.Sprintf("field(%d)", int(f))
}

func (f Field) Label() string { return fields[f].label }

func (f Field) Step() Step { return fields[f].step }

func (f Field) Required() bool { return fields[f].required }

// Scalar reports whether the field is stored in Draft.Values.
func (f Field) Scalar() bool {
	return f >= FieldFullName && f <= FieldQualification
}

// ParseField maps a JSON key such as "icNumber" back to its Field.
func ParseField(key string) (Field, bool) {
	for f, info := range fields {
		if info.key == key {
			return f, true
		}
	}
	return 0, false
}

// ScalarFields returns the scalar fields of one step in display order.
func ScalarFields(step Step) []Field {
	var out []Field
	for _, f := range scalarFields {
		if f.Step() == step {
			out = append(out, f)
		}
	}
	return out
}

// Column identifies a cell in the family or activity table.
type Column int

const (
	ColumnName Column = iota + 1
	ColumnRelationship
	ColumnAge
	ColumnOccupation
	ColumnMonthlyIncome

	ColumnActivity
	ColumnRole
)

var columnKeys = map[Column]string{
	ColumnName:          "name",
	ColumnRelationship:  "relationship",
	ColumnAge:           "age",
	ColumnOccupation:    "occupation",
	ColumnMonthlyIncome: "monthlyIncome",
	ColumnActivity:      "activity",
	ColumnRole:          "role",
}

// FamilyColumns and ActivityColumns list the columns of each table.
var (
	FamilyColumns   = []Column{ColumnName, ColumnRelationship, ColumnAge, ColumnOccupation, ColumnMonthlyIncome}
	ActivityColumns = []Column{ColumnActivity, ColumnRole}
)

func (c Column) String() string {
	if k, ok := columnKeys[c]; ok {
		return k
	}
	return fmt.Sprintf("column(%d)", int(c))
}

func (c Column) family() bool { return c >= ColumnName && c <= ColumnMonthlyIncome }

func (c Column) activity() bool { return c == ColumnActivity || c == ColumnRole }

// ParseColumn maps a JSON key such as "monthlyIncome" back to its Column.
func ParseColumn(key string) (Column, bool) {
	for c, k := range columnKeys {
		if k == key {
			return c, true
		}
	}
	return 0, false
}

// DocumentSlot is one of the three required supporting documents.
type DocumentSlot string

const (
	SlotTranscript DocumentSlot = "transcript"
	SlotPayslip    DocumentSlot = "payslip"
	SlotIC         DocumentSlot = "ic"
)

// Slots lists the document slots in upload order.
var Slots = []DocumentSlot{SlotTranscript, SlotPayslip, SlotIC}

func (s DocumentSlot) Field() Field {
	switch s {
	case SlotTranscript:
		return FieldTranscript
	case SlotPayslip:
		return FieldPayslip
	case SlotIC:
		return FieldIC
	default:
		return 0
	}
}

func (s DocumentSlot) valid() bool { return s.Field() != 0 }

// ErrorKey addresses one entry of the validation error set. Column and Row are
// only meaningful for table fields.
type ErrorKey struct {
	Field  Field
	Column Column
	Row    int
}

func FieldKey(f Field) ErrorKey { return ErrorKey{Field: f} }

func SlotKey(s DocumentSlot) ErrorKey { return ErrorKey{Field: s.Field()} }

func FamilyKey(col Column, row int) ErrorKey {
	return ErrorKey{Field: FieldFamilyMembers, Column: col, Row: row}
}

func ActivityKey(col Column, row int) ErrorKey {
	return ErrorKey{Field: FieldActivities, Column: col, Row: row}
}

// IsRow reports whether the key addresses a table cell rather than a whole field.
func (k ErrorKey) IsRow() bool { return k.Column != 0 }

// Step returns the wizard step whose gate the error belongs to.
func (k ErrorKey) Step() Step { return k.Field.Step() }

func (k ErrorKey) String() string {
	if !k.IsRow() {
		return k.Field.String()
	}
	prefix := "family"
	if k.Field == FieldActivities {
		prefix = "activity"
	}
	return fmt.Sprintf("%s_%s_%d", prefix, k.Column, k.Row)
}
