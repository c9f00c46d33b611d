// pkg/catalog/schema.go
package catalog

type Catalog struct {
	Version      string        `json:"version"`
	LastUpdated  string        `json:"lastUpdated"`
	Scholarships []Scholarship `json:"scholarships"`
}

type Scholarship struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	MinCGPA            float64 `json:"minCgpa"`
	MaxHouseholdIncome float64 `json:"maxHouseholdIncome"`
	BumiputeraOnly     bool    `json:"bumiputeraOnly"`
	Deadline           string  `json:"deadline"`
	Active             bool    `json:"active"`
}
