package form

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"scholarship-portal/internal/common/auth"
)

// File is a document selected for a slot.
type File interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// LocalFile is a file on disk.
type LocalFile struct {
	path string
	size int64
}

func NewLocalFile(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &LocalFile{path: path, size: info.Size()}, nil
}

func (f *LocalFile) Name() string { return filepath.Base(f.path) }

func (f *LocalFile) Path() string { return f.path }

func (f *LocalFile) Size() int64 { return f.size }

func (f *LocalFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

// MemoryFile holds its content in memory. DeclaredSize, when set, overrides len(Data).
type MemoryFile struct {
	FileName     string
	Data         []byte
	DeclaredSize int64
}

func (f *MemoryFile) Name() string { return f.FileName }

func (f *MemoryFile) Size() int64 {
	if f.DeclaredSize > 0 {
		return f.DeclaredSize
	}
	return int64(len(f.Data))
}

func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}

type FamilyMember struct {
	Name          string `json:"name"`
	Relationship  string `json:"relationship"`
	Age           string `json:"age"`
	Occupation    string `json:"occupation"`
	MonthlyIncome string `json:"monthlyIncome"`
}

func (m FamilyMember) Get(col Column) string {
	switch col {
	case ColumnName:
		return m.Name
	case ColumnRelationship:
		return m.Relationship
	case ColumnAge:
		return m.Age
	case ColumnOccupation:
		return m.Occupation
	case ColumnMonthlyIncome:
		return m.MonthlyIncome
	}
	return ""
}

func (m *FamilyMember) set(col Column, value string) {
	switch col {
	case ColumnName:
		m.Name = value
	case ColumnRelationship:
		m.Relationship = value
	case ColumnAge:
		m.Age = value
	case ColumnOccupation:
		m.Occupation = value
	case ColumnMonthlyIncome:
		m.MonthlyIncome = value
	}
}

// Filled reports whether at least one cell is non-blank.
func (m FamilyMember) Filled() bool {
	for _, col := range FamilyColumns {
		if !blank(m.Get(col)) {
			return true
		}
	}
	return false
}

type Activity struct {
	Activity string `json:"activity"`
	Role     string `json:"role"`
}

func (a Activity) Get(col Column) string {
	switch col {
	case ColumnActivity:
		return a.Activity
	case ColumnRole:
		return a.Role
	}
	return ""
}

func (a *Activity) set(col Column, value string) {
	switch col {
	case ColumnActivity:
		a.Activity = value
	case ColumnRole:
		a.Role = value
	}
}

// Draft is the in-memory application being edited.
type Draft struct {
	ScholarshipID string
	Values        map[Field]string
	FamilyMembers []FamilyMember
	Activities    []Activity
	Documents     map[DocumentSlot]File
}

// NewDraft starts an empty draft with two blank rows per table and the
// applicant's name taken from the profile.
func NewDraft(profile auth.Profile) *Draft {
	d := &Draft{
		Values:        make(map[Field]string),
		FamilyMembers: make([]FamilyMember, 2),
		Activities:    make([]Activity, 2),
		Documents:     make(map[DocumentSlot]File),
	}
	if name := strings.TrimSpace(profile.Name); name != "" {
		d.Values[FieldFullName] = name
	}
	return d
}

func (d *Draft) Value(f Field) string { return d.Values[f] }

// Clone copies the draft. Files are shared, they are never mutated.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	out := &Draft{
		ScholarshipID: d.ScholarshipID,
		Values:        make(map[Field]string, len(d.Values)),
		FamilyMembers: append([]FamilyMember(nil), d.FamilyMembers...),
		Activities:    append([]Activity(nil), d.Activities...),
		Documents:     make(map[DocumentSlot]File, len(d.Documents)),
	}
	for k, v := range d.Values {
		out.Values[k] = v
	}
	for k, v := range d.Documents {
		out.Documents[k] = v
	}
	return out
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
