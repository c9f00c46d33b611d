// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const deadlineLayout = "2006-01-02"

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return &cat, nil
}

// Get looks a scholarship up by id.
func (c *Catalog) Get(id string) (Scholarship, bool) {
	if c == nil {
		return Scholarship{}, false
	}
	for _, s := range c.Scholarships {
		if s.ID == id {
			return s, true
		}
	}
	return Scholarship{}, false
}

// Open lists the active scholarships whose deadline has not passed at now.
func (c *Catalog) Open(now time.Time) []Scholarship {
	var out []Scholarship
	for _, s := range c.Scholarships {
		if s.Active && !s.Closed(now) {
			out = append(out, s)
		}
	}
	return out
}

// Closed reports whether the application deadline is before now. The deadline day is inclusive.
func (s Scholarship) Closed(now time.Time) bool {
	if s.Deadline == "" {
		return false
	}
	deadline, err := time.Parse(deadlineLayout, s.Deadline)
	if err != nil {
		return false
	}
	return now.After(deadline.Add(24 * time.Hour))
}

// Ineligible returns the reasons an applicant does not meet the published criteria.
// A zero limit means the criterion is not applied.
func (s Scholarship) Ineligible(cgpa, householdIncome float64, bumiputera bool) []string {
	var reasons []string
	if s.MinCGPA > 0 && cgpa < s.MinCGPA {
		reasons = append(reasons, fmt.Sprintf("CGPA %.2f is below the minimum of %.2f", cgpa, s.MinCGPA))
	}
	if s.MaxHouseholdIncome > 0 && householdIncome > s.MaxHouseholdIncome {
		reasons = append(reasons, fmt.Sprintf("household income %.2f exceeds %.2f", householdIncome, s.MaxHouseholdIncome))
	}
	if s.BumiputeraOnly && !bumiputera {
		reasons = append(reasons, "open to bumiputera applicants only")
	}
	return reasons
}
