// Package events classifies docket entry descriptions into a fixed
// vocabulary of litigation event types and normalizes entry listings into
// event sequences for the output dataset.
package events

import (
	"regexp"

	"github.com/farleyknight/legal-outcome-prediction/pkg/courtlistener"
)

// Type is one of the litigation event categories.
type Type string

const (
	TypeComplaint            Type = "COMPLAINT"
	TypeAnswer               Type = "ANSWER"
	TypeMotionToDismiss      Type = "MOTION_TO_DISMISS"
	TypeMotionSummaryJdgmt   Type = "MOTION_FOR_SUMMARY_JUDGMENT"
	TypeMotionOther          Type = "MOTION_OTHER"
	TypeOrder                Type = "ORDER"
	TypeDiscovery            Type = "DISCOVERY"
	TypeScheduling           Type = "SCHEDULING"
	TypeSettlementConference Type = "SETTLEMENT_CONFERENCE"
	TypePretrial             Type = "PRETRIAL"
	TypeTrial                Type = "TRIAL"
	TypeJudgment             Type = "JUDGMENT"
	TypeAppeal               Type = "APPEAL"
	TypeOther                Type = "OTHER"
)

// Types lists every event category, in declaration order.
var Types = []Type{
	TypeComplaint,
	TypeAnswer,
	TypeMotionToDismiss,
	TypeMotionSummaryJdgmt,
	TypeMotionOther,
	TypeOrder,
	TypeDiscovery,
	TypeScheduling,
	TypeSettlementConference,
	TypePretrial,
	TypeTrial,
	TypeJudgment,
	TypeAppeal,
	TypeOther,
}

// rule pairs a pattern with the type it assigns. Rules are evaluated in
// order, first match wins; ordering resolves overlaps (a scheduling order
// is SCHEDULING, not ORDER; an answer to a complaint is ANSWER, not
// COMPLAINT).
type rule struct {
	t  Type
	re *regexp.Regexp
}

var rules = []rule{
	{TypeScheduling, regexp.MustCompile(`(?i)scheduling\s+(order|conference)|case\s+management`)},
	{TypeSettlementConference, regexp.MustCompile(`(?i)settlement`)},
	{TypePretrial, regexp.MustCompile(`(?i)pre.?trial`)},
	{TypeOrder, regexp.MustCompile(`(?i)^\s*(minute\s+)?(order|opinion|memorandum\s+(and\s+)?order)`)},
	{TypeMotionToDismiss, regexp.MustCompile(`(?i)motion\s+to\s+dismiss`)},
	{TypeMotionSummaryJdgmt, regexp.MustCompile(`(?i)motion\s+for\s+(partial\s+)?summary\s+judgment|summary\s+judgment\s+motion`)},
	{TypeMotionOther, regexp.MustCompile(`(?i)\bmotion\b`)},
	{TypeAnswer, regexp.MustCompile(`(?i)\banswer\b`)},
	{TypeComplaint, regexp.MustCompile(`(?i)\bcomplaint\b|^\s*petition\b`)},
	{TypeDiscovery, regexp.MustCompile(`(?i)discovery|deposition|interrogator|subpoena|request\s+for\s+production`)},
	{TypeAppeal, regexp.MustCompile(`(?i)\bappeal\b`)},
	{TypeTrial, regexp.MustCompile(`(?i)\btrial\b|voir\s+dire|jury\s+(selection|sworn|verdict)`)},
	{TypeJudgment, regexp.MustCompile(`(?i)\bjudgment\b`)},
}

// Classify assigns an event type to a docket entry description. An empty
// or unrecognized description is OTHER.
func Classify(description string) Type {
	for _, r := range rules {
		if r.re.MatchString(description) {
			return r.t
		}
	}
	return TypeOther
}

// Event is one classified docket entry.
type Event struct {
	EntryNumber int
	DateFiled   courtlistener.Date
	Type        Type
	Description string
}

// Normalize classifies an entry listing into events, preserving the input
// order. Callers hand in listings already ordered by entry number.
func Normalize(entries []courtlistener.DocketEntry) []Event {
	events := make([]Event, 0, len(entries))
	for _, e := range entries {
		events = append(events, Event{
			EntryNumber: e.EntryNumber,
			DateFiled:   e.DateFiled,
			Type:        Classify(e.Description),
			Description: e.Description,
		})
	}
	return events
}

// Sequence extracts just the type labels from an event list, in order.
func Sequence(events []Event) []string {
	seq := make([]string, 0, len(events))
	for _, e := range events {
		seq = append(seq, string(e.Type))
	}
	return seq
}
