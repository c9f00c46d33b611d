package review

import (
	"testing"

	"scholarship-portal/internal/common/portal"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, DecisionPending, s.Outcome)
	assert.Empty(t, s.CriterionAverages)
}

func TestSummarize_Averages(t *testing.T) {
	evals := []Evaluation{
		{ReviewerID: "r1", Role: RoleReviewer, Scores: map[string]float64{"academic": 8, "financial": 7}, Decision: DecisionApprove},
		{ReviewerID: "r2", Role: RoleReviewer, Scores: map[string]float64{"academic": 6, "financial": 9}, Decision: DecisionReject},
		{ReviewerID: "c1", Role: RoleCommittee, Scores: map[string]float64{"academic": 9, "financial": 8, "interview": 5}, Decision: DecisionPending},
	}

	s := Summarize(evals)

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 17.33, s.AverageTotal)
	assert.Equal(t, 15.0, s.ReviewerAverage)
	assert.Equal(t, 22.0, s.CommitteeAverage)
	assert.Equal(t, 7.67, s.CriterionAverages["academic"])
	assert.Equal(t, 8.0, s.CriterionAverages["financial"])
	assert.Equal(t, 5.0, s.CriterionAverages["interview"])
	assert.Equal(t, 1, s.Approvals)
	assert.Equal(t, 1, s.Rejections)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, DecisionPending, s.Outcome, "no committee decision yet")
	assert.Equal(t, []string{"academic", "financial", "interview"}, s.Criteria())
}

func TestSummarize_CommitteeOutcome(t *testing.T) {
	tests := []struct {
		name      string
		decisions []Decision
		want      Decision
	}{
		{name: "majority approve", decisions: []Decision{DecisionApprove, DecisionApprove, DecisionReject}, want: DecisionApprove},
		{name: "majority reject", decisions: []Decision{DecisionReject, DecisionReject, DecisionApprove}, want: DecisionReject},
		{name: "tie rejects", decisions: []Decision{DecisionApprove, DecisionReject}, want: DecisionReject},
		{name: "only pending", decisions: []Decision{DecisionPending}, want: DecisionPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var evals []Evaluation
			for _, d := range tt.decisions {
				evals = append(evals, Evaluation{Role: RoleCommittee, Scores: map[string]float64{"overall": 5}, Decision: d})
			}
			// reviewer approvals never decide the outcome
			evals = append(evals, Evaluation{Role: RoleReviewer, Scores: map[string]float64{"overall": 5}, Decision: DecisionApprove})
			evals = append(evals, Evaluation{Role: RoleReviewer, Scores: map[string]float64{"overall": 5}, Decision: DecisionApprove})

			assert.Equal(t, tt.want, Summarize(evals).Outcome)
		})
	}
}

func TestRank(t *testing.T) {
	ranked := Rank(map[string]Summary{
		"app-b": {AverageTotal: 12},
		"app-a": {AverageTotal: 18.5},
		"app-c": {AverageTotal: 12},
	})
	assert.Equal(t, []string{"app-a", "app-b", "app-c"}, ranked)
}

func TestFromPortal(t *testing.T) {
	evals := FromPortal([]portal.Evaluation{
		{ReviewerID: "c1", Role: "Committee", Decision: "APPROVE", Scores: map[string]float64{"need": 9}},
		{ReviewerID: "r1", Role: "panel", Decision: "abstain"},
	})

	assert.Equal(t, []Evaluation{
		{ReviewerID: "c1", Role: RoleCommittee, Decision: DecisionApprove, Scores: map[string]float64{"need": 9}},
		{ReviewerID: "r1", Role: RoleReviewer, Decision: DecisionPending},
	}, evals)
	assert.Empty(t, FromPortal(nil))
}
