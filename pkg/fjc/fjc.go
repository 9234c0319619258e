// Package fjc loads and filters the FJC Integrated Database civil
// terminations extract, the upstream source of case identifiers for
// resolution. It handles the IDB's CSV column conventions, its YYYYMMDD
// date format, and the disposition/judgment outcome coding.
package fjc

import (
	"fmt"
	"strings"
	"time"

	"github.com/farleyknight/legal-outcome-prediction/pkg/courtlistener"
)

// DefaultNOSCodes are the Nature of Suit codes kept by default: employment
// civil rights (442) and the ADA employment categories (445, 446).
var DefaultNOSCodes = []int{442, 445, 446}

// OutcomeValue is the binary case outcome label, or Excluded for cases
// whose coding does not support a confident label.
type OutcomeValue int

const (
	// OutcomeDefendant labels a defendant win.
	OutcomeDefendant OutcomeValue = 0

	// OutcomePlaintiff labels a plaintiff win.
	OutcomePlaintiff OutcomeValue = 1

	// OutcomeExcluded marks cases dropped from the dataset. Unmapped or
	// conflicting disposition/judgment combinations land here rather than
	// being guessed into a binary label.
	OutcomeExcluded OutcomeValue = -1
)

// Record is one row of the civil terminations extract, reduced to the
// fields the pipeline consumes.
type Record struct {
	// District is the uppercase district code as it appears in the
	// extract, e.g. "NYSD".
	District string

	// DocketRaw is the docket number string, unnormalized.
	DocketRaw string

	// NOS is the Nature of Suit code.
	NOS int

	// Disposition and Judgment are the raw coded values.
	Disposition string
	Judgment    string

	// FilingDate and TerminationDate are converted from the extract's
	// YYYYMMDD format. Either may be absent.
	FilingDate      courtlistener.Date
	TerminationDate courtlistener.Date
}

// CaseID builds the "district:docket" identifier used throughout the
// pipeline and in the unmatched log.
func (r Record) CaseID() string {
	return strings.ToLower(r.District) + ":" + r.DocketRaw
}

// Outcome maps the record's disposition and judgment coding to a label.
// Only judgments reached on the merits (default, consent, pre-trial
// motion, jury verdict, directed verdict, court trial) are labeled; a
// judgment-for field of 1 means plaintiff and 2 means defendant. Every
// other combination is Excluded.
func (r Record) Outcome() OutcomeValue {
	switch strings.TrimSpace(r.Disposition) {
	case "4", "5", "6", "7", "8", "9":
	default:
		return OutcomeExcluded
	}
	switch strings.TrimSpace(r.Judgment) {
	case "1":
		return OutcomePlaintiff
	case "2":
		return OutcomeDefendant
	default:
		return OutcomeExcluded
	}
}

// DaysToResolution returns the day count between filing and termination.
// Absent dates or a termination before filing yield ok=false.
func (r Record) DaysToResolution() (int, bool) {
	if r.FilingDate.IsZero() || r.TerminationDate.IsZero() {
		return 0, false
	}
	days := int(r.TerminationDate.Sub(r.FilingDate.Time) / (24 * time.Hour))
	if days < 0 {
		return 0, false
	}
	return days, true
}

// FilterNOS keeps only the records whose Nature of Suit code is in codes.
func FilterNOS(records []Record, codes []int) []Record {
	keep := make(map[int]bool, len(codes))
	for _, c := range codes {
		keep[c] = true
	}

	var out []Record
	for _, r := range records {
		if keep[r.NOS] {
			out = append(out, r)
		}
	}
	return out
}

// ConvertDate parses the extract's YYYYMMDD date format. Empty or
// malformed values yield a zero date, not an error; the extract is full of
// them and absence is meaningful downstream.
func ConvertDate(s string) courtlistener.Date {
	s = strings.TrimSpace(s)
	if len(s) != 8 {
		return courtlistener.Date{}
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return courtlistener.Date{}
	}
	return courtlistener.Date{Time: t}
}

// ParseCaseID splits a "district:docket" identifier into its parts. A
// single-digit division prefix between the two is dropped
// ("cacd:1:2019cv01234" yields docket "2019cv01234"); whitespace around
// either part is tolerated; the court comes back lowercased.
func ParseCaseID(caseID string) (court, docket string, err error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return "", "", fmt.Errorf("empty case id")
	}

	i := strings.Index(caseID, ":")
	if i < 0 {
		return "", "", fmt.Errorf("case id %q has no district separator", caseID)
	}

	court = strings.ToLower(strings.TrimSpace(caseID[:i]))
	remainder := strings.TrimSpace(caseID[i+1:])
	if court == "" {
		return "", "", fmt.Errorf("case id %q has an empty district", caseID)
	}
	if remainder == "" {
		return "", "", fmt.Errorf("case id %q has an empty docket number", caseID)
	}

	if j := strings.Index(remainder, ":"); j >= 0 {
		prefix := strings.TrimSpace(remainder[:j])
		if len(prefix) == 1 && prefix >= "0" && prefix <= "9" {
			remainder = strings.TrimSpace(remainder[j+1:])
		}
	}
	if remainder == "" {
		return "", "", fmt.Errorf("case id %q has an empty docket number", caseID)
	}

	return court, remainder, nil
}
