// cmd/portal/render.go
package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	apperrors "scholarship-portal/internal/common/errors"
	"scholarship-portal/internal/form"
	"scholarship-portal/internal/review"
	"scholarship-portal/pkg/catalog"
)

var (
	warn    = color.New(color.FgYellow)
	failure = color.New(color.FgRed, color.Bold)
	success = color.New(color.FgGreen)
)

func renderErrors(w io.Writer, errs form.ErrorSet) {
	if len(errs) == 0 {
		return
	}

	keys := make([]form.ErrorKey, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Step() != keys[j].Step() {
			return keys[i].Step() < keys[j].Step()
		}
		return keys[i].String() < keys[j].String()
	})

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Step", "Message"})
	table.SetAutoWrapText(false)
	for _, k := range keys {
		table.Append([]string{k.String(), k.Step().String(), errs.Get(k)})
	}
	table.Render()
}

func renderEligibility(w io.Writer, s catalog.Scholarship, d *form.Draft, now time.Time) {
	if d == nil {
		return
	}
	if s.Closed(now) {
		warn.Fprintf(w, "%s closed on %s\n", s.Name, s.Deadline)
	}
	bumi, _ := strconv.ParseBool(d.Value(form.FieldBumiputeraStatus))
	for _, reason := range s.Ineligible(parseFloat(d.Value(form.FieldCGPA)), parseFloat(d.Value(form.FieldHouseholdIncome)), bumi) {
		warn.Fprintf(w, "%s: %s\n", s.Name, reason)
	}
}

func renderSummary(w io.Writer, applicationID string, s review.Summary) {
	fmt.Fprintf(w, "Application %s: %d evaluations, outcome %s\n", applicationID, s.Count, s.Outcome)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Criterion", "Average"})
	for _, name := range s.Criteria() {
		table.Append([]string{name, strconv.FormatFloat(s.CriterionAverages[name], 'f', 2, 64)})
	}
	table.SetFooter([]string{"Total", strconv.FormatFloat(s.AverageTotal, 'f', 2, 64)})
	table.Render()

	fmt.Fprintf(w, "Reviewer average: %.2f  Committee average: %.2f\n", s.ReviewerAverage, s.CommitteeAverage)
	fmt.Fprintf(w, "Approve %d  Reject %d  Pending %d\n", s.Approvals, s.Rejections, s.Pending)
}

func renderRanking(w io.Writer, summaries map[string]review.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Application", "Average Total", "Outcome"})
	for i, id := range review.Rank(summaries) {
		s := summaries[id]
		table.Append([]string{
			strconv.Itoa(i + 1),
			id,
			strconv.FormatFloat(s.AverageTotal, 'f', 2, 64),
			string(s.Outcome),
		})
	}
	table.Render()
}

func renderScholarships(w io.Writer, list []catalog.Scholarship) {
	if len(list) == 0 {
		warn.Fprintln(w, "No scholarships are open for applications")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Min CGPA", "Max Income", "Deadline"})
	for _, s := range list {
		table.Append([]string{s.ID, s.Name, limit(s.MinCGPA), limit(s.MaxHouseholdIncome), s.Deadline})
	}
	table.Render()
}

func limit(v float64) string {
	if v == 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func printSuccess(w io.Writer, msg string) {
	success.Fprintln(w, msg)
}

func printError(w io.Writer, err error) {
	if se, ok := apperrors.As(err); ok {
		failure.Fprintf(w, "%s: %s\n", se.Code, se.Message)
		if se.Details != "" {
			fmt.Fprintf(w, "  %s\n", se.Details)
		}
		return
	}
	failure.Fprintf(w, "Error: %v\n", err)
}
