// Package review aggregates reviewer and committee evaluations for the dashboard views.
package review

import (
	"math"
	"sort"
	"strings"

	"scholarship-portal/internal/common/portal"
)

type Role string

const (
	RoleReviewer  Role = "reviewer"
	RoleCommittee Role = "committee"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionPending Decision = "pending"
)

// Evaluation is one reviewer's or committee member's scoring of an application.
type Evaluation struct {
	ReviewerID   string             `json:"reviewerId"`
	ReviewerName string             `json:"reviewerName"`
	Role         Role               `json:"role"`
	Scores       map[string]float64 `json:"scores"`
	Decision     Decision           `json:"decision"`
	Comment      string             `json:"comment,omitempty"`
}

// FromPortal converts backend evaluations. Unknown roles count as reviewers and
// unknown decisions as pending.
func FromPortal(in []portal.Evaluation) []Evaluation {
	out := make([]Evaluation, 0, len(in))
	for _, e := range in {
		ev := Evaluation{
			ReviewerID:   e.ReviewerID,
			ReviewerName: e.ReviewerName,
			Role:         RoleReviewer,
			Scores:       e.Scores,
			Decision:     DecisionPending,
			Comment:      e.Comment,
		}
		if Role(strings.ToLower(e.Role)) == RoleCommittee {
			ev.Role = RoleCommittee
		}
		switch d := Decision(strings.ToLower(e.Decision)); d {
		case DecisionApprove, DecisionReject:
			ev.Decision = d
		}
		out = append(out, ev)
	}
	return out
}

// Total is the sum of the evaluation's criterion scores.
func (e Evaluation) Total() float64 {
	var total float64
	for _, s := range e.Scores {
		total += s
	}
	return total
}

type Summary struct {
	Count             int                `json:"count"`
	AverageTotal      float64            `json:"averageTotal"`
	ReviewerAverage   float64            `json:"reviewerAverage"`
	CommitteeAverage  float64            `json:"committeeAverage"`
	CriterionAverages map[string]float64 `json:"criterionAverages"`
	Approvals         int                `json:"approvals"`
	Rejections        int                `json:"rejections"`
	Pending           int                `json:"pending"`
	Outcome           Decision           `json:"outcome"`
}

// Summarize folds evaluations into dashboard figures. The outcome stays
// pending until a committee member has decided; after that the committee
// majority wins and a tie is a rejection.
func Summarize(evals []Evaluation) Summary {
	s := Summary{
		CriterionAverages: map[string]float64{},
		Outcome:           DecisionPending,
	}
	if len(evals) == 0 {
		return s
	}

	var (
		total, reviewerTotal, committeeTotal float64
		reviewers, committee                 int
		committeeApprove, committeeReject    int
	)
	criterionSums := map[string]float64{}
	criterionCounts := map[string]int{}

	for _, e := range evals {
		t := e.Total()
		total += t

		switch e.Role {
		case RoleCommittee:
			committee++
			committeeTotal += t
		default:
			reviewers++
			reviewerTotal += t
		}

		for name, score := range e.Scores {
			criterionSums[name] += score
			criterionCounts[name]++
		}

		switch e.Decision {
		case DecisionApprove:
			s.Approvals++
			if e.Role == RoleCommittee {
				committeeApprove++
			}
		case DecisionReject:
			s.Rejections++
			if e.Role == RoleCommittee {
				committeeReject++
			}
		default:
			s.Pending++
		}
	}

	s.Count = len(evals)
	s.AverageTotal = round2(total / float64(len(evals)))
	if reviewers > 0 {
		s.ReviewerAverage = round2(reviewerTotal / float64(reviewers))
	}
	if committee > 0 {
		s.CommitteeAverage = round2(committeeTotal / float64(committee))
	}
	for name, sum := range criterionSums {
		s.CriterionAverages[name] = round2(sum / float64(criterionCounts[name]))
	}

	if committeeApprove+committeeReject > 0 {
		if committeeApprove > committeeReject {
			s.Outcome = DecisionApprove
		} else {
			s.Outcome = DecisionReject
		}
	}
	return s
}

// Criteria returns the criterion names of a summary in a stable order.
func (s Summary) Criteria() []string {
	names := make([]string, 0, len(s.CriterionAverages))
	for name := range s.CriterionAverages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rank orders application summaries by average total, highest first. Ties are
// ordered by ascending id.
func Rank(summaries map[string]Summary) []string {
	ids := make([]string, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sort.SliceStable(ids, func(i, j int) bool {
		return summaries[ids[i]].AverageTotal > summaries[ids[j]].AverageTotal
	})
	return ids
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
