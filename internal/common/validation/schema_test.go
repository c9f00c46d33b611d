package validation

import (
	"testing"

	"scholarship-portal/internal/common/portal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() *portal.CreateApplicationRequest {
	file := func(name string) portal.UploadedFile {
		return portal.UploadedFile{FileName: name, FileURL: "/api/files/download/" + name, OriginalName: name, Size: 1024}
	}
	age := 48
	return &portal.CreateApplicationRequest{
		FullName:           "Aina Rahman",
		PhoneNumber:        "0123456789",
		DateOfBirth:        "2003-04-12",
		ICNumber:           "030412-10-1234",
		Nationality:        "Malaysian",
		BumiputeraStatus:   true,
		Gender:             "female",
		Address:            "12 Jalan Mawar, Shah Alam",
		HouseholdIncome:    4200,
		University:         "Universiti Malaya",
		Major:              "Computer Science",
		YearOfStudy:        "2",
		CGPA:               3.5,
		ExpectedGraduation: "2027-07",
		Qualification:      "Bachelor",
		FamilyMembers: []portal.FamilyMember{
			{Name: "Rahman", Relationship: "Father", Age: &age, Occupation: "Driver", MonthlyIncome: 2500},
		},
		Activities: []portal.Activity{
			{Activity: "Debate Club", Role: "President"},
		},
		Transcript: file("t.pdf"),
		Payslip:    file("p.pdf"),
		IC:         file("ic.png"),
	}
}

func TestValidateApplication(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(p *portal.CreateApplicationRequest)
		valid      bool
		errorField string
	}{
		{name: "valid payload", mutate: func(p *portal.CreateApplicationRequest) {}, valid: true},
		{name: "cgpa above range", mutate: func(p *portal.CreateApplicationRequest) { p.CGPA = 4.2 }, errorField: "cgpa"},
		{name: "cgpa below range", mutate: func(p *portal.CreateApplicationRequest) { p.CGPA = 1.5 }, errorField: "cgpa"},
		{name: "missing transcript file name", mutate: func(p *portal.CreateApplicationRequest) { p.Transcript = portal.UploadedFile{} }, errorField: "transcript"},
		{name: "no activities", mutate: func(p *portal.CreateApplicationRequest) { p.Activities = []portal.Activity{} }, errorField: "activities"},
		{name: "bad date", mutate: func(p *portal.CreateApplicationRequest) { p.DateOfBirth = "12/04/2003" }, errorField: "dateOfBirth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(p)

			result, err := ValidateApplication(p)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid, result.GetErrorMessages())
			if tt.errorField != "" {
				assert.True(t, result.HasErrors(tt.errorField), result.GetErrorMessages())
			}
		})
	}
}

func TestValidateDocument_BadSchema(t *testing.T) {
	_, err := ValidateDocument(`{"type": 12}`, map[string]interface{}{"a": 1})
	assert.Error(t, err)
}
