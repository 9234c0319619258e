// Package pipeline orchestrates a full batch run: load and filter the
// source dataset, resolve each case against the remote record service,
// classify docket entries into event sequences, and emit the output CSV
// plus the unmatched log and match-rate metrics.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/farleyknight/legal-outcome-prediction/pkg/events"
	"github.com/farleyknight/legal-outcome-prediction/pkg/fjc"
	"github.com/farleyknight/legal-outcome-prediction/pkg/logging"
	"github.com/farleyknight/legal-outcome-prediction/pkg/resolver"
)

// Config holds the batch parameters.
type Config struct {
	// DataPath is the civil terminations extract (plain or .bz2 CSV).
	DataPath string

	// OutputPath receives the result CSV.
	OutputPath string

	// UnmatchedLogPath receives one line per unmatched case.
	UnmatchedLogPath string

	// MetricsPath receives the match-rate metrics JSON.
	MetricsPath string

	// SampleSize limits the batch to the first N filtered cases when > 0.
	SampleSize int

	// NOSCodes overrides the Nature of Suit filter. Empty means
	// fjc.DefaultNOSCodes.
	NOSCodes []int
}

// Summary reports the outcome of one batch run.
type Summary struct {
	RunID               string  `json:"run_id"`
	MatchedCount        int     `json:"matched_count"`
	UnmatchedCount      int     `json:"unmatched_count"`
	TransientCount      int     `json:"transient_count"`
	TotalCount          int     `json:"total_count"`
	MatchRatePercentage float64 `json:"match_rate_percentage"`
	Timestamp           string  `json:"timestamp"`
}

// Runner drives a batch run over a resolver.
type Runner struct {
	resolver *resolver.Resolver
	cfg      Config
	logger   zerolog.Logger
}

// New creates a runner. The resolver owns transport and cache concerns;
// the runner owns dataset handling and outputs.
func New(res *resolver.Resolver, cfg Config) *Runner {
	return &Runner{
		resolver: res,
		cfg:      cfg,
		logger:   logging.NewLogger("pipeline"),
	}
}

// outputRow is one line of the result CSV.
type outputRow struct {
	caseID           string
	district         string
	filingDate       string
	terminationDate  string
	eventSequence    []string
	daysToResolution string
	outcome          fjc.OutcomeValue
}

// Run executes the batch. It returns an error only for systemic failures
// (dataset unreadable, auth rejection, cancellation); per-case misses are
// accounted in the Summary and the unmatched log.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	runID := ulid.Make().String()
	log := r.logger.With().Str("run_id", runID).Logger()
	log.Info().Str("data", r.cfg.DataPath).Msg("Starting pipeline run")

	cases, err := r.loadCases()
	if err != nil {
		return nil, err
	}
	log.Info().Int("cases", len(cases)).Msg("Dataset loaded and filtered")

	unmatchedLog, closer, err := logging.NewUnmatchedLogger(r.cfg.UnmatchedLogPath)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	summary := &Summary{RunID: runID}
	var rows []outputRow

	for _, rec := range cases {
		caseID := rec.CaseID()

		court, docket, parseErr := fjc.ParseCaseID(caseID)
		if parseErr != nil {
			summary.UnmatchedCount++
			unmatchedLog.Info().
				Str("case_id", caseID).
				Str("district", rec.District).
				Bool("invalid_format", true).
				Msg("unmatched")
			continue
		}

		res, resolveErr := r.resolver.Resolve(ctx, resolver.CaseIdentifier{
			Court:           court,
			DocketRaw:       docket,
			FilingDate:      rec.FilingDate,
			TerminationDate: rec.TerminationDate,
		})
		if resolveErr != nil {
			// Auth rejection or cancellation: the whole batch stops.
			return nil, fmt.Errorf("run %s aborted: %w", runID, resolveErr)
		}

		switch res.Outcome {
		case resolver.OutcomeTransient:
			// Left unresolved this run; not a confirmed non-match, so it
			// stays out of the unmatched log.
			summary.TransientCount++
			continue

		case resolver.OutcomeExhausted:
			summary.UnmatchedCount++
			unmatchedLog.Info().
				Str("case_id", caseID).
				Str("district", rec.District).
				Strs("candidates_tried", res.CandidatesTried).
				Str("failure_class", res.FailureClass).
				Msg("unmatched")
			continue
		}

		row, ok := r.buildRow(rec, caseID, res)
		if !ok {
			summary.UnmatchedCount++
			unmatchedLog.Info().
				Str("case_id", caseID).
				Str("district", rec.District).
				Bool("negative_days_to_resolution", true).
				Str("filing_date", rec.FilingDate.String()).
				Str("termination_date", rec.TerminationDate.String()).
				Msg("unmatched")
			continue
		}
		summary.MatchedCount++
		rows = append(rows, row)
	}

	summary.TotalCount = summary.MatchedCount + summary.UnmatchedCount + summary.TransientCount
	if summary.TotalCount > 0 {
		rate := float64(summary.MatchedCount) / float64(summary.TotalCount) * 100
		summary.MatchRatePercentage = math.Round(rate*100) / 100
	}
	summary.Timestamp = time.Now().Format(time.RFC3339)

	if err := writeOutputCSV(r.cfg.OutputPath, rows); err != nil {
		return nil, err
	}
	if err := r.writeMetrics(summary); err != nil {
		return nil, err
	}

	log.Info().
		Int("matched", summary.MatchedCount).
		Int("unmatched", summary.UnmatchedCount).
		Int("transient", summary.TransientCount).
		Float64("match_rate_pct", summary.MatchRatePercentage).
		Msg("Pipeline run complete")
	return summary, nil
}

// loadCases loads the extract, applies the NOS filter, drops cases with an
// unlabelable outcome, and applies the sample limit.
func (r *Runner) loadCases() ([]fjc.Record, error) {
	records, err := fjc.Load(r.cfg.DataPath)
	if err != nil {
		return nil, err
	}

	codes := r.cfg.NOSCodes
	if len(codes) == 0 {
		codes = fjc.DefaultNOSCodes
	}
	records = fjc.FilterNOS(records, codes)

	var cases []fjc.Record
	for _, rec := range records {
		if rec.Outcome() == fjc.OutcomeExcluded {
			continue
		}
		cases = append(cases, rec)
	}

	if r.cfg.SampleSize > 0 && len(cases) > r.cfg.SampleSize {
		r.logger.Info().
			Int("sample", r.cfg.SampleSize).
			Int("filtered", len(cases)).
			Msg("Applying sample limit")
		cases = cases[:r.cfg.SampleSize]
	}
	return cases, nil
}

// buildRow assembles one output row from a matched case. ok is false when
// the record's dates imply a termination before filing.
func (r *Runner) buildRow(rec fjc.Record, caseID string, res *resolver.Result) (outputRow, bool) {
	days := ""
	if !rec.FilingDate.IsZero() && !rec.TerminationDate.IsZero() {
		d, ok := rec.DaysToResolution()
		if !ok {
			return outputRow{}, false
		}
		days = strconv.Itoa(d)
	}

	evs := events.Normalize(res.Entries)
	return outputRow{
		caseID:           caseID,
		district:         rec.District,
		filingDate:       rec.FilingDate.String(),
		terminationDate:  rec.TerminationDate.String(),
		eventSequence:    events.Sequence(evs),
		daysToResolution: days,
		outcome:          rec.Outcome(),
	}, true
}

// writeMetrics persists the run summary JSON for match-rate verification.
func (r *Runner) writeMetrics(summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if err := writeFileAtomic(r.cfg.MetricsPath, data); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
