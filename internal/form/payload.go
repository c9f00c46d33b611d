package form

import (
	"fmt"
	"strconv"
	"strings"

	"scholarship-portal/internal/common/portal"
)

// BuildPayload flattens a draft and its uploaded documents into the create request.
// Only filled family members and filled activities are included.
func BuildPayload(d *Draft, r Rules, uploads map[DocumentSlot]portal.UploadedFile) (*portal.CreateApplicationRequest, error) {
	cgpa, err := parseAmount(d.Value(FieldCGPA))
	if err != nil {
		return nil, fmt.Errorf("cgpa: %w", err)
	}
	income, err := parseAmount(d.Value(FieldHouseholdIncome))
	if err != nil {
		return nil, fmt.Errorf("householdIncome: %w", err)
	}

	req := &portal.CreateApplicationRequest{
		ScholarshipID:      d.ScholarshipID,
		FullName:           strings.TrimSpace(d.Value(FieldFullName)),
		PhoneNumber:        strings.TrimSpace(d.Value(FieldPhoneNumber)),
		DateOfBirth:        strings.TrimSpace(d.Value(FieldDateOfBirth)),
		ICNumber:           strings.TrimSpace(d.Value(FieldICNumber)),
		Nationality:        strings.TrimSpace(d.Value(FieldNationality)),
		BumiputeraStatus:   d.Value(FieldBumiputeraStatus) == "true",
		Gender:             strings.TrimSpace(d.Value(FieldGender)),
		Address:            strings.TrimSpace(d.Value(FieldAddress)),
		HouseholdIncome:    income,
		University:         strings.TrimSpace(d.Value(FieldUniversity)),
		Major:              strings.TrimSpace(d.Value(FieldMajor)),
		YearOfStudy:        strings.TrimSpace(d.Value(FieldYearOfStudy)),
		CGPA:               cgpa,
		ExpectedGraduation: strings.TrimSpace(d.Value(FieldExpectedGraduation)),
		Qualification:      strings.TrimSpace(d.Value(FieldQualification)),
		FamilyMembers:      []portal.FamilyMember{},
		Activities:         []portal.Activity{},
	}
	AttachUploads(req, uploads)

	for i, m := range d.FamilyMembers {
		if !m.Filled() {
			continue
		}
		member := portal.FamilyMember{
			Name:         strings.TrimSpace(m.Name),
			Relationship: strings.TrimSpace(m.Relationship),
			Occupation:   strings.TrimSpace(m.Occupation),
		}
		if m.Age != "" {
			age, err := strconv.Atoi(m.Age)
			if err != nil {
				return nil, fmt.Errorf("family member %d age: %w", i, err)
			}
			member.Age = &age
		}
		if member.MonthlyIncome, err = parseAmount(m.MonthlyIncome); err != nil {
			return nil, fmt.Errorf("family member %d monthlyIncome: %w", i, err)
		}
		req.FamilyMembers = append(req.FamilyMembers, member)
	}

	for _, a := range d.Activities {
		if r.ActivityFilled(a) {
			req.Activities = append(req.Activities, portal.Activity{
				Activity: strings.TrimSpace(a.Activity),
				Role:     strings.TrimSpace(a.Role),
			})
		}
	}

	return req, nil
}

// AttachUploads sets the document descriptors of a built payload.
func AttachUploads(req *portal.CreateApplicationRequest, uploads map[DocumentSlot]portal.UploadedFile) {
	req.Transcript = uploads[SlotTranscript]
	req.Payslip = uploads[SlotPayslip]
	req.IC = uploads[SlotIC]
}

// parseAmount parses a filtered numeric input. Blank is zero.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
