// internal/common/portal/models.go
package portal

// UploadedFile is the descriptor recorded for a document after a successful upload.
type UploadedFile struct {
	FileName     string `json:"fileName"`
	FileURL      string `json:"fileUrl"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}

type FamilyMember struct {
	Name          string  `json:"name"`
	Relationship  string  `json:"relationship"`
	Age           *int    `json:"age,omitempty"`
	Occupation    string  `json:"occupation"`
	MonthlyIncome float64 `json:"monthlyIncome"`
}

type Activity struct {
	Activity string `json:"activity"`
	Role     string `json:"role"`
}

// CreateApplicationRequest is the flattened draft sent to the create endpoint.
type CreateApplicationRequest struct {
	ScholarshipID string `json:"scholarshipId,omitempty"`

	FullName         string  `json:"fullName"`
	PhoneNumber      string  `json:"phoneNumber"`
	DateOfBirth      string  `json:"dateOfBirth"`
	ICNumber         string  `json:"icNumber"`
	Nationality      string  `json:"nationality"`
	BumiputeraStatus bool    `json:"bumiputeraStatus"`
	Gender           string  `json:"gender"`
	Address          string  `json:"address"`
	HouseholdIncome  float64 `json:"householdIncome"`

	University         string  `json:"university"`
	Major              string  `json:"major"`
	YearOfStudy        string  `json:"yearOfStudy"`
	CGPA               float64 `json:"cgpa"`
	ExpectedGraduation string  `json:"expectedGraduation"`
	Qualification      string  `json:"qualification"`

	FamilyMembers []FamilyMember `json:"familyMembers"`
	Activities    []Activity     `json:"activities"`

	Transcript UploadedFile `json:"transcript"`
	Payslip    UploadedFile `json:"payslip"`
	IC         UploadedFile `json:"ic"`
}

type CreateApplicationResponse struct {
	ID              string `json:"id"`
	ApplicationID   string `json:"applicationId"`
	ScholarshipName string `json:"scholarshipName"`
	Status          string `json:"status"`
}

// Identifier returns whichever id field the backend populated.
func (r *CreateApplicationResponse) Identifier() string {
	if r.ID != "" {
		return r.ID
	}
	return r.ApplicationID
}

type uploadResponse struct {
	FileName string `json:"fileName"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

func (r uploadResponse) name() string {
	if r.FileName != "" {
		return r.FileName
	}
	return r.Filename
}

// Evaluation is one reviewer's or committee member's scoring as returned by the backend.
type Evaluation struct {
	ReviewerID   string             `json:"reviewerId"`
	ReviewerName string             `json:"reviewerName"`
	Role         string             `json:"role"`
	Scores       map[string]float64 `json:"scores"`
	Decision     string             `json:"decision"`
	Comment      string             `json:"comment,omitempty"`
}
