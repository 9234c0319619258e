package resolver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Docket number shapes seen in the source dataset.
var (
	// 4-digit year + "cv" + sequence, e.g. "2019cv01234"
	reYearCv = regexp.MustCompile(`^(\d{4})cv(\d+)$`)

	// 2-digit year + "cv" + sequence, e.g. "19cv1234"
	reShortCv = regexp.MustCompile(`^(\d{2})cv(\d+)$`)

	// bare digits: 2-digit year followed by the sequence, e.g. "191234"
	reDigits = regexp.MustCompile(`^(\d{2})(\d{1,5})$`)

	// already formatted, with optional division prefix, e.g. "1:19-cv-01234"
	reFormatted = regexp.MustCompile(`^(?:\d+:)?(\d{2})-cv-(\d+)$`)
)

// Candidates expands a raw docket number into the ordered sequence of
// formatting hypotheses tried against the search endpoint. The order is
// fixed: plain, hyphenated, then division-prefixed; resolution walks it
// until a candidate yields a date-verified match. An unrecognized raw value
// is tried verbatim as the only candidate.
func Candidates(docketRaw string) []string {
	raw := strings.ToLower(strings.Join(strings.Fields(docketRaw), ""))
	if raw == "" {
		return nil
	}

	yy, seq, ok := splitDocket(raw)
	if !ok {
		return []string{raw}
	}

	return []string{
		fmt.Sprintf("%scv%s", yy, seq),
		fmt.Sprintf("%s-cv-%s", yy, seq),
		fmt.Sprintf("1:%s-cv-%s", yy, seq),
	}
}

// splitDocket extracts the 2-digit year and zero-padded 5-digit sequence
// from a raw docket number.
func splitDocket(raw string) (yy, seq string, ok bool) {
	if m := reYearCv.FindStringSubmatch(raw); m != nil {
		return m[1][2:], padSequence(m[2]), true
	}
	if m := reShortCv.FindStringSubmatch(raw); m != nil {
		return m[1], padSequence(m[2]), true
	}
	if m := reFormatted.FindStringSubmatch(raw); m != nil {
		return m[1], padSequence(m[2]), true
	}
	if m := reDigits.FindStringSubmatch(raw); m != nil {
		return m[1], padSequence(m[2]), true
	}
	return "", "", false
}

// padSequence left-pads a docket sequence to the canonical 5 digits.
func padSequence(seq string) string {
	n, err := strconv.Atoi(seq)
	if err != nil {
		return seq
	}
	return fmt.Sprintf("%05d", n)
}
