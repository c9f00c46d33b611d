package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarship-portal/internal/common/auth"
	"scholarship-portal/internal/common/config"
	"scholarship-portal/internal/common/database"
	apperrors "scholarship-portal/internal/common/errors"
	"scholarship-portal/internal/form"
	"scholarship-portal/internal/review"
	"scholarship-portal/pkg/catalog"
)

func init() {
	color.NoColor = true
}

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(nil, &out, &errOut))
	assert.Contains(t, errOut.String(), "Usage: portal")

	errOut.Reset()
	assert.Equal(t, 2, run([]string{"frobnicate"}, &out, &errOut))
	assert.Contains(t, errOut.String(), `unknown command "frobnicate"`)

	assert.Equal(t, 0, run([]string{"help"}, &out, &errOut))
	assert.Contains(t, out.String(), "validate")
}

func TestRun_RequiresDraft(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 1, run([]string{"validate"}, &out, &errOut))
	assert.Contains(t, errOut.String(), "-draft is required")
}

func TestRenderErrors(t *testing.T) {
	errs := form.ErrorSet{
		form.FieldKey(form.FieldCGPA):        "CGPA is required",
		form.FieldKey(form.FieldFullName):    "Full name is required",
		form.ActivityKey(form.ColumnRole, 1): "Must be at least 3 characters",
	}

	var buf bytes.Buffer
	renderErrors(&buf, errs)
	out := buf.String()

	assert.Contains(t, out, "fullName")
	assert.Contains(t, out, "activity_role_1")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("fullName")), bytes.Index(buf.Bytes(), []byte("cgpa")),
		"personal step errors are listed first")

	buf.Reset()
	renderErrors(&buf, form.ErrorSet{})
	assert.Empty(t, buf.String())
}

func TestRenderEligibility(t *testing.T) {
	s := catalog.Scholarship{Name: "B40 Support", MinCGPA: 3.0, MaxHouseholdIncome: 4850, BumiputeraOnly: true, Deadline: "2026-01-31"}
	d := &form.Draft{Values: map[form.Field]string{
		form.FieldCGPA:            "2.80",
		form.FieldHouseholdIncome: "3000",
	}}

	var buf bytes.Buffer
	renderEligibility(&buf, s, d, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC))
	out := buf.String()
	assert.Contains(t, out, "B40 Support closed on 2026-01-31")
	assert.Contains(t, out, "below the minimum")
	assert.Contains(t, out, "bumiputera applicants only")
	assert.NotContains(t, out, "exceeds")
}

func TestRenderSummary(t *testing.T) {
	s := review.Summarize([]review.Evaluation{
		{ReviewerID: "r1", Role: review.RoleReviewer, Scores: map[string]float64{"academic": 8, "need": 6}, Decision: review.DecisionApprove},
	})

	var buf bytes.Buffer
	renderSummary(&buf, "app-1", s)
	out := buf.String()
	assert.Contains(t, out, "Application app-1: 1 evaluations")
	assert.Contains(t, out, "academic")
	assert.Contains(t, out, "8.00")
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, apperrors.NewSubmissionBlockedError("Please upload all required documents"))
	assert.Contains(t, buf.String(), "Please upload all required documents")

	buf.Reset()
	printError(&buf, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestReadDraft_ResolvesRelativeDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "draft.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"values": {"fullName": "Aina Rahman"},
		"documents": {"transcript": "docs/transcript.pdf", "ic": "/abs/ic.png"}
	}`), 0o600))

	rec, err := readDraft(path)
	require.NoError(t, err)
	assert.Equal(t, "Aina Rahman", rec.Values["fullName"])
	assert.Equal(t, filepath.Join(dir, "docs", "transcript.pdf"), rec.Documents["transcript"])
	assert.Equal(t, "/abs/ic.png", rec.Documents["ic"])

	_, err = readDraft(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestRenderRanking(t *testing.T) {
	var buf bytes.Buffer
	renderRanking(&buf, map[string]review.Summary{
		"app-b": {AverageTotal: 12, Outcome: review.DecisionPending},
		"app-a": {AverageTotal: 18.5, Outcome: review.DecisionApprove},
	})
	out := buf.String()

	assert.Contains(t, out, "18.50")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("app-a")), bytes.Index(buf.Bytes(), []byte("app-b")))
}

func TestRenderScholarships(t *testing.T) {
	var buf bytes.Buffer
	renderScholarships(&buf, []catalog.Scholarship{
		{ID: "merit-2026", Name: "Merit Excellence Scholarship", MinCGPA: 3.5, Deadline: "2026-12-31"},
	})
	out := buf.String()
	assert.Contains(t, out, "merit-2026")
	assert.Contains(t, out, "3.50")
	assert.Contains(t, out, "2026-12-31")

	buf.Reset()
	renderScholarships(&buf, nil)
	assert.Contains(t, buf.String(), "No scholarships are open")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"app-1", "app-2"}, splitList(" app-1, ,app-2 "))
	assert.Empty(t, splitList(""))
}

func TestLoadRecord_Resume(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	e := &env{
		cfg:   &config.Config{Drafts: config.DraftsConfig{Store: "redis", TTLHours: 72}},
		redis: client,
	}
	ctx := context.Background()
	sess := auth.NewStaticSession("tok", auth.Profile{UserID: "student-1"})

	_, err = e.loadRecord(ctx, sess, "", true)
	assert.ErrorContains(t, err, `no saved draft for user "student-1"`)

	saved := form.DraftRecord{Values: map[string]string{"fullName": "Aina Rahman", "cgpa": "3.75"}}
	require.NoError(t, e.redisSaver().SaveDraft(ctx, "student-1", saved))

	rec, err := e.loadRecord(ctx, sess, "", true)
	require.NoError(t, err)
	assert.Equal(t, saved.Values, rec.Values)

	actions, err := rec.Actions(form.OpenLocalFile)
	require.NoError(t, err)
	assert.NotEmpty(t, actions)

	noStore := &env{cfg: &config.Config{}}
	_, err = noStore.loadRecord(ctx, sess, "", true)
	assert.ErrorContains(t, err, "drafts.store")
}
