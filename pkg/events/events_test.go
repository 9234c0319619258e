package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farleyknight/legal-outcome-prediction/pkg/courtlistener"
)

func TestTypesComplete(t *testing.T) {
	require.Len(t, Types, 14)

	seen := make(map[Type]bool)
	for _, ty := range Types {
		assert.False(t, seen[ty], "duplicate type %s", ty)
		seen[ty] = true
	}

	// Every rule target must be in the vocabulary; OTHER is the fallback.
	for _, r := range rules {
		assert.True(t, seen[r.t], "rule target %s not in Types", r.t)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		description string
		want        Type
	}{
		{"COMPLAINT against Acme Corp filed by Jane Doe", TypeComplaint},
		{"Amended complaint with jury demand", TypeComplaint},
		{"ANSWER to Complaint by Acme Corp", TypeAnswer},
		{"Answer to amended complaint", TypeAnswer},
		{"MOTION to Dismiss for failure to state a claim", TypeMotionToDismiss},
		{"MOTION for Summary Judgment by defendant", TypeMotionSummaryJdgmt},
		{"Motion for partial summary judgment", TypeMotionSummaryJdgmt},
		{"MOTION for Extension of Time to File Response", TypeMotionOther},
		{"ORDER granting extension of time", TypeOrder},
		{"Memorandum and Order on cross-motions", TypeOrder},
		{"Minute Order for proceedings held before Judge Smith", TypeOrder},
		{"NOTICE of deposition of John Roe", TypeDiscovery},
		{"Certificate of service of interrogatories", TypeDiscovery},
		{"SCHEDULING ORDER: discovery due 6/1", TypeScheduling},
		{"Initial case management conference set", TypeScheduling},
		{"Settlement conference held before magistrate", TypeSettlementConference},
		{"Final Pretrial Conference set for 9/15", TypePretrial},
		{"Pre-trial order entered", TypePretrial},
		{"Jury trial held day 1", TypeTrial},
		{"Jury verdict returned", TypeTrial},
		{"JUDGMENT in favor of plaintiff", TypeJudgment},
		{"NOTICE OF APPEAL to the Second Circuit", TypeAppeal},
		{"Summons issued as to defendant", TypeOther},
		{"", TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.description), "description %q", tt.description)
		})
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	entries := []courtlistener.DocketEntry{
		{ID: 1, EntryNumber: 1, DateFiled: courtlistener.MustDate("2019-03-04"), Description: "COMPLAINT filed"},
		{ID: 2, EntryNumber: 2, DateFiled: courtlistener.MustDate("2019-04-01"), Description: "ANSWER to complaint"},
		{ID: 3, EntryNumber: 3, DateFiled: courtlistener.MustDate("2019-06-15"), Description: "SCHEDULING ORDER entered"},
		{ID: 4, EntryNumber: 4, DateFiled: courtlistener.MustDate("2020-01-10"), Description: "MOTION for summary judgment"},
		{ID: 5, EntryNumber: 5, DateFiled: courtlistener.MustDate("2020-05-30"), Description: "JUDGMENT for defendant"},
	}

	events := Normalize(entries)
	require.Len(t, events, 5)

	want := []string{
		"COMPLAINT", "ANSWER", "SCHEDULING", "MOTION_FOR_SUMMARY_JUDGMENT", "JUDGMENT",
	}
	assert.Equal(t, want, Sequence(events))

	for i, e := range events {
		assert.Equal(t, entries[i].EntryNumber, e.EntryNumber)
		assert.Equal(t, entries[i].Description, e.Description)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	assert.Empty(t, Sequence(nil))
}
