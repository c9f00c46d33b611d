package form

import (
	"testing"

	"scholarship-portal/internal/common/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReducerState() (*Draft, ErrorSet, Rules) {
	return NewDraft(auth.Profile{Name: "Aina Rahman"}), make(ErrorSet), DefaultRules()
}

func TestErrorKey_String(t *testing.T) {
	assert.Equal(t, "cgpa", FieldKey(FieldCGPA).String())
	assert.Equal(t, "payslip", SlotKey(SlotPayslip).String())
	assert.Equal(t, "activity_role_1", ActivityKey(ColumnRole, 1).String())
	assert.Equal(t, "family_monthlyIncome_0", FamilyKey(ColumnMonthlyIncome, 0).String())
}

func TestParseFieldAndColumn(t *testing.T) {
	f, ok := ParseField("icNumber")
	require.True(t, ok)
	assert.Equal(t, FieldICNumber, f)

	_, ok = ParseField("nope")
	assert.False(t, ok)

	c, ok := ParseColumn("monthlyIncome")
	require.True(t, ok)
	assert.Equal(t, ColumnMonthlyIncome, c)
}

func TestNewDraft(t *testing.T) {
	d := NewDraft(auth.Profile{Name: "  Aina Rahman "})
	assert.Equal(t, "Aina Rahman", d.Value(FieldFullName))
	assert.Len(t, d.FamilyMembers, 2)
	assert.Len(t, d.Activities, 2)
	assert.Empty(t, d.Documents)

	empty := NewDraft(auth.Profile{})
	_, ok := empty.Values[FieldFullName]
	assert.False(t, ok)
}

func TestReduce_SetFieldFilters(t *testing.T) {
	d, errs, r := newReducerState()

	require.NoError(t, reduce(d, errs, r, SetField(FieldCGPA, "3.5")))
	require.NoError(t, reduce(d, errs, r, SetField(FieldCGPA, "3.5.1")))
	assert.Equal(t, "3.5", d.Value(FieldCGPA))

	require.NoError(t, reduce(d, errs, r, SetField(FieldCGPA, "5")))
	assert.Equal(t, "3.5", d.Value(FieldCGPA))

	require.NoError(t, reduce(d, errs, r, SetField(FieldHouseholdIncome, "RM3,500")))
	assert.Equal(t, "3500", d.Value(FieldHouseholdIncome))

	require.NoError(t, reduce(d, errs, r, SetField(FieldBumiputeraStatus, "Yes")))
	assert.Equal(t, "true", d.Value(FieldBumiputeraStatus))
}

func TestReduce_BlurSetsAndEditClears(t *testing.T) {
	d, errs, r := newReducerState()

	require.NoError(t, reduce(d, errs, r, SetField(FieldCGPA, "1.5")))
	assert.Empty(t, errs, "constrained input is only range checked on blur")

	require.NoError(t, reduce(d, errs, r, BlurField(FieldCGPA)))
	assert.Equal(t, "CGPA must be between 2.00 and 4.00", errs.Get(FieldKey(FieldCGPA)))

	require.NoError(t, reduce(d, errs, r, SetField(FieldCGPA, "2.5")))
	assert.Empty(t, errs.Get(FieldKey(FieldCGPA)))

	require.NoError(t, reduce(d, errs, r, BlurField(FieldMajor)))
	assert.Equal(t, "Major is required", errs.Get(FieldKey(FieldMajor)))
}

func TestReduce_ActivityCellErrors(t *testing.T) {
	d, errs, r := newReducerState()

	require.NoError(t, reduce(d, errs, r, SetActivity(0, ColumnActivity, "Ch")))
	assert.Equal(t, "Must be at least 3 characters", errs.Get(ActivityKey(ColumnActivity, 0)))

	require.NoError(t, reduce(d, errs, r, SetActivity(0, ColumnActivity, "Chess")))
	assert.Empty(t, errs.Get(ActivityKey(ColumnActivity, 0)))

	require.NoError(t, reduce(d, errs, r, SetActivity(1, ColumnRole, "VP")))
	require.NotEmpty(t, errs.Get(ActivityKey(ColumnRole, 1)))
	require.NoError(t, reduce(d, errs, r, SetActivity(1, ColumnRole, "")))
	assert.Empty(t, errs.Get(ActivityKey(ColumnRole, 1)), "blanking clears the error")
}

func TestReduce_RemoveRowRekeysErrors(t *testing.T) {
	d, errs, r := newReducerState()
	require.NoError(t, reduce(d, errs, r, AddActivity()))
	require.Len(t, d.Activities, 3)

	require.NoError(t, reduce(d, errs, r, SetActivity(0, ColumnRole, "ab")))
	require.NoError(t, reduce(d, errs, r, SetActivity(1, ColumnActivity, "Debate")))
	require.NoError(t, reduce(d, errs, r, SetActivity(2, ColumnActivity, "xy")))

	require.NoError(t, reduce(d, errs, r, RemoveActivity(1)))

	assert.Len(t, d.Activities, 2)
	assert.Equal(t, "xy", d.Activities[1].Activity)
	assert.NotEmpty(t, errs.Get(ActivityKey(ColumnRole, 0)))
	assert.NotEmpty(t, errs.Get(ActivityKey(ColumnActivity, 1)), "row 2 error moves to row 1")
	assert.Empty(t, errs.Get(ActivityKey(ColumnActivity, 2)))

	require.NoError(t, reduce(d, errs, r, RemoveActivity(0)))
	assert.Empty(t, errs.Get(ActivityKey(ColumnRole, 0)))
	assert.NotEmpty(t, errs.Get(ActivityKey(ColumnActivity, 0)))
}

func TestReduce_FamilyColumnsFiltered(t *testing.T) {
	d, errs, r := newReducerState()

	require.NoError(t, reduce(d, errs, r, SetFamilyMember(0, ColumnAge, "4a5")))
	require.NoError(t, reduce(d, errs, r, SetFamilyMember(0, ColumnMonthlyIncome, "RM 1,200.50")))
	require.NoError(t, reduce(d, errs, r, SetFamilyMember(0, ColumnName, "Rahman bin Ali")))

	assert.Equal(t, FamilyMember{Name: "Rahman bin Ali", Age: "45", MonthlyIncome: "1200.50"}, d.FamilyMembers[0])
}

func TestReduce_FamilyTableErrorClearsWhenSatisfied(t *testing.T) {
	d, errs, r := newReducerState()
	errs.set(FieldKey(FieldFamilyMembers), r.MinFamilyMessage())

	require.NoError(t, reduce(d, errs, r, SetFamilyMember(0, ColumnName, "Rahman")))
	assert.NotEmpty(t, errs.Get(FieldKey(FieldFamilyMembers)))

	require.NoError(t, reduce(d, errs, r, SetFamilyMember(1, ColumnRelationship, "Mother")))
	assert.Empty(t, errs.Get(FieldKey(FieldFamilyMembers)))
}

func TestReduce_SelectFile(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		wantErr string
		wantSet bool
	}{
		{name: "6MB pdf rejected", file: &MemoryFile{FileName: "transcript.pdf", DeclaredSize: 6 << 20}, wantErr: "File size must be less than 5MB"},
		{name: "1MB exe rejected", file: &MemoryFile{FileName: "transcript.exe", DeclaredSize: 1 << 20}, wantErr: "Invalid file type. Accepted formats: PDF, JPG, JPEG, PNG"},
		{name: "pdf accepted", file: &MemoryFile{FileName: "transcript.pdf", Data: []byte("%PDF")}, wantSet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, errs, r := newReducerState()
			require.NoError(t, reduce(d, errs, r, SelectFile(SlotTranscript, tt.file)))

			_, set := d.Documents[SlotTranscript]
			assert.Equal(t, tt.wantSet, set)
			assert.Equal(t, tt.wantErr, errs.Get(SlotKey(SlotTranscript)))
		})
	}
}

func TestReduce_ClearFile(t *testing.T) {
	d, errs, r := newReducerState()
	require.NoError(t, reduce(d, errs, r, SelectFile(SlotIC, &MemoryFile{FileName: "ic.png", Data: []byte("png")})))
	require.NoError(t, reduce(d, errs, r, ClearFile(SlotIC)))
	assert.NotContains(t, d.Documents, SlotIC)
}

func TestReduce_InvalidActions(t *testing.T) {
	tests := []struct {
		name   string
		action Action
	}{
		{name: "table field via SetField", action: SetField(FieldActivities, "x")},
		{name: "family row out of range", action: SetFamilyMember(5, ColumnName, "x")},
		{name: "activity column on family", action: SetFamilyMember(0, ColumnRole, "x")},
		{name: "family column on activity", action: SetActivity(0, ColumnAge, "x")},
		{name: "remove missing row", action: RemoveActivity(-1)},
		{name: "unknown slot", action: SelectFile("passport", &MemoryFile{FileName: "a.pdf"})},
		{name: "nil file", action: SelectFile(SlotIC, nil)},
		{name: "zero action", action: Action{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, errs, r := newReducerState()
			assert.ErrorIs(t, reduce(d, errs, r, tt.action), ErrInvalidAction)
		})
	}
}
