// Package resolver reconciles source-dataset case identifiers against the
// remote record service. For each case it walks an ordered sequence of
// docket number format candidates, verifies hits by filing date, and drains
// the entry listing of the matched docket through cursor pagination. Every
// query goes cache-first; only misses reach the network.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/farleyknight/legal-outcome-prediction/pkg/cache"
	"github.com/farleyknight/legal-outcome-prediction/pkg/courtlistener"
	"github.com/farleyknight/legal-outcome-prediction/pkg/logging"
)

// Prometheus metrics for resolution outcomes.
var (
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recap_resolutions_total",
		Help: "Total case resolutions by outcome",
	}, []string{"outcome"})

	candidatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recap_candidates_tried_total",
		Help: "Total docket number candidates queried",
	})

	cacheShortCircuits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recap_resolver_cache_hits_total",
		Help: "Total resolver queries answered from the cache",
	})
)

// CaseIdentifier is the input to a resolution: one case from the source
// dataset. Immutable once constructed.
type CaseIdentifier struct {
	// Court is the lowercase court code, e.g. "nysd".
	Court string

	// DocketRaw is the docket number in the source-system format.
	DocketRaw string

	// FilingDate is the known filing date, used as the verification signal.
	FilingDate courtlistener.Date

	// TerminationDate may be absent.
	TerminationDate courtlistener.Date
}

// Outcome is the terminal state of one resolution.
type Outcome string

const (
	// OutcomeMatched means a candidate produced a date-verified docket.
	OutcomeMatched Outcome = "matched"

	// OutcomeExhausted means every candidate was tried without a verified
	// match. A normal terminal state.
	OutcomeExhausted Outcome = "exhausted"

	// OutcomeTransient means transport failures left the case unresolved
	// for this run. Retryable on a future run; never recorded as a
	// confirmed non-match.
	OutcomeTransient Outcome = "transient"
)

// Result is the outcome of resolving one CaseIdentifier.
type Result struct {
	Outcome Outcome

	// Docket is the matched remote record (nil unless Matched).
	Docket *courtlistener.Docket

	// Entries is the full entry listing of the matched docket, ordered by
	// entry number (nil unless Matched).
	Entries []courtlistener.DocketEntry

	// CandidatesTried lists the candidate formats queried, in order.
	CandidatesTried []string

	// FailureClass is the last observed failure class, for the
	// unmatched-case log.
	FailureClass string
}

// Resolver drives candidate queries through the cache and transport.
type Resolver struct {
	client *courtlistener.Client
	store  cache.Store
	logger zerolog.Logger
	stats  statsCounter

	// CacheNegative controls whether 404 outcomes are cached (under the
	// negative namespace). Enabled by default.
	CacheNegative bool
}

// New creates a resolver over the given transport and cache store.
func New(client *courtlistener.Client, store cache.Store) *Resolver {
	return &Resolver{
		client:        client,
		store:         store,
		logger:        logging.NewLogger("resolver"),
		CacheNegative: true,
	}
}

// Stats returns a snapshot of the accumulated batch counters.
func (r *Resolver) Stats() Stats {
	return r.stats.snapshot()
}

// Resolve runs the candidate sequence for one case. It returns an error
// only for conditions that must abort the whole batch (auth rejection,
// context cancellation); per-case failures are reported in the Result.
func (r *Resolver) Resolve(ctx context.Context, id CaseIdentifier) (*Result, error) {
	res := &Result{}

	for _, cand := range Candidates(id.DocketRaw) {
		res.CandidatesTried = append(res.CandidatesTried, cand)
		r.stats.addCandidate()
		candidatesTotal.Inc()

		log := r.logger.With().
			Str("court", id.Court).
			Str("candidate", cand).
			Logger()

		key := cache.SearchKey(id.Court, cand)
		body, hit, err := r.cachedGet(ctx, key, func(ctx context.Context) ([]byte, error) {
			return r.client.SearchDockets(ctx, id.Court, cand)
		})
		if err != nil {
			if outcome, abort := r.classifyFailure(err, res, log); abort != nil {
				return nil, abort
			} else if outcome != "" {
				res.Outcome = outcome
				resolutionsTotal.WithLabelValues(string(outcome)).Inc()
				return res, nil
			}
			continue // 404: no such record under this format
		}

		page, err := courtlistener.DecodeDocketPage(body)
		if err != nil {
			log.Warn().Err(err).Bool("cache_hit", hit).Msg("Undecodable search response")
			continue
		}
		if len(page.Results) == 0 {
			log.Debug().Msg("Candidate yielded no results")
			continue
		}

		docket := verifyResults(page.Results, id.FilingDate)
		if docket == nil {
			// A same-format, wrong-date hit is not evidence the format is
			// right; keep walking the candidate list.
			log.Debug().
				Str("filing_date", id.FilingDate.String()).
				Msg("Results rejected by date verification")
			res.FailureClass = "date_mismatch"
			continue
		}

		entries, err := r.fetchAllEntries(ctx, docket.ID)
		if err != nil {
			if outcome, abort := r.classifyFailure(err, res, log); abort != nil {
				return nil, abort
			} else if outcome != "" {
				res.Outcome = outcome
				resolutionsTotal.WithLabelValues(string(outcome)).Inc()
				return res, nil
			}
			// 404 on the entry listing: matched docket with no entries.
			entries = nil
		}

		log.Info().
			Int64("docket_id", docket.ID).
			Int("entries", len(entries)).
			Msg("Case matched")

		r.stats.addMatched()
		resolutionsTotal.WithLabelValues(string(OutcomeMatched)).Inc()
		res.Outcome = OutcomeMatched
		res.Docket = docket
		res.Entries = entries
		return res, nil
	}

	r.stats.addExhausted()
	resolutionsTotal.WithLabelValues(string(OutcomeExhausted)).Inc()
	res.Outcome = OutcomeExhausted
	if res.FailureClass == "" {
		res.FailureClass = "no_results"
	}
	return res, nil
}

// classifyFailure sorts a transport error into: continue to the next
// candidate (404; returns "", nil), finish this case with an outcome
// (transient; returns outcome, nil), or abort the batch (auth,
// cancellation; returns "", error).
func (r *Resolver) classifyFailure(err error, res *Result, log zerolog.Logger) (Outcome, error) {
	switch {
	case errors.Is(err, courtlistener.ErrNotFound):
		r.stats.addNotFound()
		res.FailureClass = "not_found"
		return "", nil

	case isTransient(err):
		// Unresolved this run only; must not be cached or logged as a
		// confirmed non-match.
		log.Warn().Err(err).Msg("Case unresolved this run")
		r.stats.addTransient()
		res.FailureClass = string(failureClass(err))
		return OutcomeTransient, nil

	default:
		// AuthError, cancellation, unexpected client errors: systemic.
		return "", fmt.Errorf("resolution aborted: %w", err)
	}
}

// isTransient reports whether the error leaves the case retryable on a
// future run.
func isTransient(err error) bool {
	var transientErr *courtlistener.TransientError
	return errors.As(err, &transientErr)
}

// failureClass extracts the transport error class for the unmatched log.
func failureClass(err error) courtlistener.ErrorClass {
	var transientErr *courtlistener.TransientError
	if errors.As(err, &transientErr) {
		return transientErr.Class
	}
	return courtlistener.ErrorClassNetwork
}

// verifyResults returns the first result whose filing date confirms the
// match, or nil when every result is a false positive.
func verifyResults(results []courtlistener.Docket, filingDate courtlistener.Date) *courtlistener.Docket {
	for i := range results {
		if dateVerified(results[i].DateFiled, filingDate) {
			return &results[i]
		}
	}
	return nil
}

// dateVerified applies the match invariant: same calendar date confirms; a
// date absent on either side is non-disqualifying; a present-but-different
// date rejects.
func dateVerified(remote, local courtlistener.Date) bool {
	if remote.IsZero() || local.IsZero() {
		return true
	}
	return remote.SameDay(local)
}

// cachedGet answers the query from the store when possible, otherwise
// fetches and writes through. Cached negative outcomes replay as
// ErrNotFound. Transient failures are never written to the store.
func (r *Resolver) cachedGet(ctx context.Context, key cache.Key, fetch func(context.Context) ([]byte, error)) (body []byte, hit bool, err error) {
	k := key.String()

	body, err = r.store.Get(ctx, k)
	if err == nil {
		cacheShortCircuits.Inc()
		return body, true, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.logger.Warn().Err(err).Str("key", k).Msg("Cache get error")
	}

	if r.CacheNegative {
		if _, negErr := r.store.Get(ctx, key.AsNegative().String()); negErr == nil {
			cacheShortCircuits.Inc()
			return nil, true, fmt.Errorf("%w: cached negative for %s", courtlistener.ErrNotFound, k)
		}
	}

	body, err = fetch(ctx)
	if err != nil {
		if errors.Is(err, courtlistener.ErrNotFound) && r.CacheNegative {
			if putErr := r.store.Put(ctx, key.AsNegative().String(), []byte(`{}`)); putErr != nil {
				r.logger.Warn().Err(putErr).Str("key", k).Msg("Failed to cache negative outcome")
			}
		}
		return nil, false, err
	}

	if putErr := r.store.Put(ctx, k, body); putErr != nil {
		// A failed write costs a refetch next run, nothing more.
		r.logger.Warn().Err(putErr).Str("key", k).Msg("Failed to cache response")
	}
	return body, false, nil
}

// fetchAllEntries drains the entry listing of a docket, following the
// continuation cursor until exhausted. Pages are cached individually; the
// result is sorted by entry number so ordering is independent of
// page-boundary placement.
func (r *Resolver) fetchAllEntries(ctx context.Context, docketID int64) ([]courtlistener.DocketEntry, error) {
	var entries []courtlistener.DocketEntry

	cursor := ""
	nextURL := ""
	for {
		key := cache.EntriesKey(docketID, cursor)
		pageURL := nextURL
		body, _, err := r.cachedGet(ctx, key, func(ctx context.Context) ([]byte, error) {
			if pageURL == "" {
				return r.client.DocketEntries(ctx, docketID)
			}
			return r.client.Get(ctx, pageURL)
		})
		if err != nil {
			return nil, err
		}

		page, err := courtlistener.DecodeEntryPage(body)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page.Results...)

		if !page.HasNext() {
			break
		}
		nextURL = *page.Next
		cursor = nextURL
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EntryNumber < entries[j].EntryNumber
	})
	return entries, nil
}
