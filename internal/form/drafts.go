package form

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"scholarship-portal/internal/common/database"
)

// ErrDraftPersistenceUnavailable is returned by savers that do not persist.
var ErrDraftPersistenceUnavailable = errors.New("draft persistence is not available")

// DraftRecord is the serialisable form of a draft. Documents map slot names to
// a file reference (a local path for files selected from disk).
type DraftRecord struct {
	ScholarshipID string            `json:"scholarshipId,omitempty"`
	Values        map[string]string `json:"values"`
	FamilyMembers []FamilyMember    `json:"familyMembers"`
	Activities    []Activity        `json:"activities"`
	Documents     map[string]string `json:"documents,omitempty"`
	SavedAt       time.Time         `json:"savedAt,omitempty"`
}

// Record converts a draft into its serialisable form.
func Record(d *Draft) DraftRecord {
	rec := DraftRecord{
		ScholarshipID: d.ScholarshipID,
		Values:        make(map[string]string, len(d.Values)),
		FamilyMembers: append([]FamilyMember(nil), d.FamilyMembers...),
		Activities:    append([]Activity(nil), d.Activities...),
		Documents:     make(map[string]string, len(d.Documents)),
	}
	for f, v := range d.Values {
		rec.Values[f.String()] = v
	}
	for slot, file := range d.Documents {
		if lf, ok := file.(*LocalFile); ok {
			rec.Documents[string(slot)] = lf.Path()
		} else {
			rec.Documents[string(slot)] = file.Name()
		}
	}
	return rec
}

// Actions replays a record as reducer actions so every input rule applies.
// open resolves a document reference to a File.
func (rec DraftRecord) Actions(open func(ref string) (File, error)) ([]Action, error) {
	var actions []Action
	for key, value := range rec.Values {
		f, ok := ParseField(key)
		if !ok || !f.Scalar() {
			return nil, fmt.Errorf("unknown field %q", key)
		}
		actions = append(actions, SetField(f, value))
	}
	// Map order is random; replay scalar fields in declaration order.
	sort.Slice(actions, func(i, j int) bool { return actions[i].Field < actions[j].Field })

	for row, m := range rec.FamilyMembers {
		if row >= 2 {
			actions = append(actions, AddFamilyMember())
		}
		for _, col := range FamilyColumns {
			if v := m.Get(col); v != "" {
				actions = append(actions, SetFamilyMember(row, col, v))
			}
		}
	}
	for row, a := range rec.Activities {
		if row >= 2 {
			actions = append(actions, AddActivity())
		}
		for _, col := range ActivityColumns {
			if v := a.Get(col); v != "" {
				actions = append(actions, SetActivity(row, col, v))
			}
		}
	}
	for _, slot := range Slots {
		ref, ok := rec.Documents[string(slot)]
		if !ok || ref == "" {
			continue
		}
		if open == nil {
			return nil, fmt.Errorf("no opener for document %s", slot)
		}
		file, err := open(ref)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", slot, err)
		}
		actions = append(actions, SelectFile(slot, file))
	}
	return actions, nil
}

// OpenLocalFile is the opener for records whose documents are disk paths.
func OpenLocalFile(ref string) (File, error) {
	return NewLocalFile(ref)
}

// DraftSaver persists an in-progress draft for a user.
type DraftSaver interface {
	SaveDraft(ctx context.Context, userID string, rec DraftRecord) error
}

// NopDraftSaver keeps nothing.
type NopDraftSaver struct{}

func (NopDraftSaver) SaveDraft(context.Context, string, DraftRecord) error {
	return ErrDraftPersistenceUnavailable
}

// RedisDraftSaver stores drafts as JSON under "draft:<userID>".
type RedisDraftSaver struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewRedisDraftSaver(client *database.RedisClient, ttl time.Duration) *RedisDraftSaver {
	return &RedisDraftSaver{client: client, ttl: ttl}
}

func draftKey(userID string) string { return "draft:" + userID }

func (s *RedisDraftSaver) SaveDraft(ctx context.Context, userID string, rec DraftRecord) error {
	if userID == "" {
		return fmt.Errorf("user id is required to save a draft")
	}
	return s.client.SetJSON(ctx, draftKey(userID), rec, s.ttl)
}

// LoadDraft returns the saved draft of a user; found is false when none exists.
func (s *RedisDraftSaver) LoadDraft(ctx context.Context, userID string) (rec DraftRecord, found bool, err error) {
	err = s.client.GetJSON(ctx, draftKey(userID), &rec)
	if errors.Is(err, database.ErrNotFound) {
		return DraftRecord{}, false, nil
	}
	if err != nil {
		return DraftRecord{}, false, err
	}
	return rec, true, nil
}

// DeleteDraft removes a saved draft, e.g. after a successful submission.
func (s *RedisDraftSaver) DeleteDraft(ctx context.Context, userID string) error {
	return s.client.Del(ctx, draftKey(userID))
}
