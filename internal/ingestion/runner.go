package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aura-webinar/recording-ingest/internal/conferencing"
	"github.com/aura-webinar/recording-ingest/internal/metrics"
	"github.com/aura-webinar/recording-ingest/internal/models"
)

// DefaultRequestTimeout bounds a single outbound call when no timeout is configured.
const DefaultRequestTimeout = 30 * time.Second

// RunnerConfig tunes a batch run.
type RunnerConfig struct {
	Lookback       time.Duration
	Workers        int
	RunTimeout     time.Duration // 0 disables the run deadline
	RequestTimeout time.Duration // per call for the settings read and token exchange; 0 means DefaultRequestTimeout
}

// Deps are the collaborators of a Runner. Reports and Metrics are optional.
type Deps struct {
	Credentials  CredentialResolver
	Tokens       TokenBroker
	Selector     *Selector
	Locator      RecordingLocator
	Orchestrator *Orchestrator
	Reports      ReportSink
	Metrics      *metrics.Pipeline
}

// Runner drives one batch: credentials and token once, then every candidate
// independently on a bounded worker pool.
type Runner struct {
	deps   Deps
	cfg    RunnerConfig
	logger *zap.Logger
}

// NewRunner creates a batch runner.
func NewRunner(deps Deps, cfg RunnerConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	return &Runner{deps: deps, cfg: cfg, logger: logger}
}

// resultSet collects results from concurrent workers.
type resultSet struct {
	mu      sync.Mutex
	results []models.IngestionResult
	skipped int
}

func (s *resultSet) add(r models.IngestionResult) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
}

func (s *resultSet) skip(n int) {
	s.mu.Lock()
	s.skipped += n
	s.mu.Unlock()
}

// Run executes one batch. An error is returned only for fatal preconditions
// (credentials, token, candidate query); per-lesson failures are in the report.
//
// When the run deadline passes, candidates not yet started are skipped and
// counted; in-flight ones run to completion under their own request timeouts.
func (r *Runner) Run(ctx context.Context, now time.Time) (*models.RunReport, error) {
	started := time.Now()
	runID := uuid.New()
	log := r.logger.With(zap.String("run_id", runID.String()))

	report, err := r.run(ctx, now, log)
	if err != nil {
		r.deps.Metrics.ObserveRun(metrics.RunFatal, time.Since(started))
		log.Error("recording ingestion run aborted", zap.Error(err))
		return nil, err
	}
	report.RunID = runID
	report.StartedAt = started.UTC()
	report.FinishedAt = time.Now().UTC()
	r.deps.Metrics.ObserveRun(metrics.RunOK, time.Since(started))

	log.Info("recording ingestion run finished",
		zap.Int("processed", report.ProcessedCount),
		zap.Int("skipped", report.SkippedCount),
		zap.Int("initiated", report.Count(models.OutcomeInitiated)),
		zap.Int("no_recording", report.Count(models.OutcomeNoRecordingFound)),
		zap.Int("errors", report.Count(models.OutcomeError)),
		zap.Duration("elapsed", time.Since(started)),
	)
	if r.deps.Reports != nil {
		if err := r.deps.Reports.Save(context.WithoutCancel(ctx), report); err != nil {
			log.Warn("save run report failed", zap.Error(err))
		}
	}
	return report, nil
}

func (r *Runner) run(ctx context.Context, now time.Time, log *zap.Logger) (*models.RunReport, error) {
	runCtx := ctx
	if r.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.RunTimeout)
		defer cancel()
	}

	var creds *models.Credentials
	err := r.call(runCtx, func(ctx context.Context) (err error) {
		creds, err = r.deps.Credentials.Resolve(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("resolve credentials: %w", err)
	}
	var token string
	err = r.call(runCtx, func(ctx context.Context) (err error) {
		token, err = r.deps.Tokens.Exchange(ctx, creds)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("conferencing token: %w", err)
	}

	candidates, err := r.deps.Selector.Select(runCtx, now, r.cfg.Lookback)
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	log.Info("recording ingestion candidates selected", zap.Int("count", len(candidates)))

	set := &resultSet{}
	// Work that has started must not be cut off by the run deadline.
	workCtx := context.WithoutCancel(runCtx)
	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)
	for i, lesson := range candidates {
		if runCtx.Err() != nil {
			set.skip(len(candidates) - i)
			break
		}
		g.Go(func() error {
			if runCtx.Err() != nil {
				set.skip(1)
				return nil
			}
			res := r.processOne(workCtx, lesson, creds, token, log)
			r.deps.Metrics.ObserveOutcome(string(res.Outcome))
			set.add(res)
			return nil
		})
	}
	_ = g.Wait()

	if set.skipped > 0 {
		log.Warn("run deadline reached; candidates left for next run", zap.Int("skipped", set.skipped))
	}
	sort.Slice(set.results, func(i, j int) bool {
		return set.results[i].LessonID.String() < set.results[j].LessonID.String()
	})
	return &models.RunReport{
		ProcessedCount: len(set.results),
		SkippedCount:   set.skipped,
		Results:        set.results,
	}, nil
}

// call runs fn under the per-request timeout.
func (r *Runner) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()
	return fn(ctx)
}

// processOne locates and ingests a single lesson. Panics are converted into an
// error outcome so one lesson can never take down the batch.
func (r *Runner) processOne(ctx context.Context, lesson models.Lesson, creds *models.Credentials, token string, log *zap.Logger) (res models.IngestionResult) {
	log = log.With(zap.String("lesson_id", lesson.ID.String()), zap.String("session_id", lesson.ConferenceSessionID))
	defer func() {
		if p := recover(); p != nil {
			log.Error("recording ingestion panicked", zap.Any("panic", p), zap.Stack("stack"))
			res = models.IngestionResult{
				LessonID:    lesson.ID,
				Outcome:     models.OutcomeError,
				ErrorDetail: fmt.Sprintf("panic: %v", p),
			}
		}
	}()

	asset, err := r.deps.Locator.Locate(ctx, token, lesson.ConferenceSessionID)
	if errors.Is(err, conferencing.ErrRecordingNotFound) {
		log.Info("no recording available yet")
		return models.IngestionResult{LessonID: lesson.ID, Outcome: models.OutcomeNoRecordingFound}
	}
	if err != nil {
		log.Warn("locate recording failed", zap.Error(err))
		return models.IngestionResult{LessonID: lesson.ID, Outcome: models.OutcomeLocatorFailed, ErrorDetail: err.Error()}
	}
	return r.deps.Orchestrator.Ingest(ctx, lesson, asset, creds, token)
}
