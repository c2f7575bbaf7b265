package session

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/output"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/sites"
	"github.com/Devarsh-leo/news-feed-extractor-worker/pkg/httpclient"
	"github.com/Devarsh-leo/news-feed-extractor-worker/pkg/sinks"
)

// joinDeadline bounds the wait for all jobs of a session. Effectively
// unbounded; pagination ceilings and early-stop end jobs long before it.
const joinDeadline = 10000 * time.Second

const dateLayout = "2006-01-02"

// JobRequest is one submitted site search with inclusive calendar bounds.
type JobRequest struct {
	SiteURL  string
	FromDate string
	ToDate   string
}

// Runner executes one site job to completion. *pipeline.Pipeline is the
// production implementation.
type Runner interface {
	Run(ctx context.Context, job domain.ExtractionJob, site sites.Adapter) error
}

// RunnerFactory builds the runner for one session's staging area.
type RunnerFactory func(staging *output.Staging) Runner

// Options wires a Manager.
type Options struct {
	Registry   *sites.Registry
	NewRunner  RunnerFactory
	Aggregator func(staging *output.Staging, sessionID string) (string, int, error)
	Store      *Store
	Sinks      []sinks.Sink
	StagingDir string
	Workers    int
	Log        logger.Logger
}

// Manager owns session lifecycle: it fans jobs out over a bounded worker
// pool, holds the cancellation token, aggregates on join and records the
// outcome. At most one session is active; submitting a new one cancels the
// session still in flight.
type Manager struct {
	opts Options
	log  logger.Logger

	mu     sync.Mutex
	active *activeSession
}

type activeSession struct {
	id         string
	token      *Token
	done       chan struct{}
	reportPath string
	err        error
}

// NewManager builds a Manager from options. Registry, NewRunner, Aggregator
// and StagingDir are required.
func NewManager(opts Options) (*Manager, error) {
	if opts.Registry == nil || opts.NewRunner == nil || opts.Aggregator == nil {
		return nil, fmt.Errorf("manager requires registry, runner factory and aggregator")
	}
	if opts.StagingDir == "" {
		return nil, fmt.Errorf("manager requires a staging dir")
	}
	if opts.Workers <= 0 {
		opts.Workers = max(1, runtime.NumCPU()/2)
	}
	return &Manager{opts: opts, log: logger.Ensure(opts.Log)}, nil
}

// DefaultAggregator adapts an output.Aggregator for Manager options.
func DefaultAggregator(agg *output.Aggregator) func(*output.Staging, string) (string, int, error) {
	return func(staging *output.Staging, sessionID string) (string, int, error) {
		return agg.Aggregate(context.Background(), staging, sessionID)
	}
}

// DefaultClient returns the shared fetch client used when no per-site
// override applies.
func DefaultClient(timeout time.Duration, maxRetries int, userAgent string) httpclient.Client {
	return httpclient.New(httpclient.Options{
		Timeout:    timeout,
		MaxRetries: maxRetries,
		UserAgent:  userAgent,
	})
}

// Submit starts a session over the requested jobs and returns its id.
// An in-flight session is cancelled first; the extractor runs at most one
// session at a time because staging and the cancellation signal are shared.
func (m *Manager) Submit(reqs []JobRequest) (string, error) {
	jobs, err := parseJobs(reqs)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	if m.active != nil {
		select {
		case <-m.active.done:
		default:
			m.log.WarnObj("cancelling in-flight session before new submission", "session_preempted", map[string]any{
				"session_id": m.active.id,
			})
			m.active.token.Cancel()
			<-m.active.done
		}
	}

	id := uuid.NewString()
	staging, err := output.NewStaging(m.opts.StagingDir, id)
	if err != nil {
		m.mu.Unlock()
		return "", err
	}

	act := &activeSession{
		id:    id,
		token: NewToken(),
		done:  make(chan struct{}),
	}
	m.active = act
	m.mu.Unlock()

	m.putRecord(domain.SessionRecord{
		ID:        id,
		Status:    domain.SessionRunning,
		StartedAt: time.Now(),
	})

	sitesRequested := make([]string, len(jobs))
	for i, j := range jobs {
		sitesRequested[i] = j.SiteURL
	}

	go m.run(act, jobs, staging, sitesRequested)
	return id, nil
}

// Cancel flips the cancellation signal for the given session if it is the
// active one.
func (m *Manager) Cancel(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil && m.active.id == id {
		m.active.token.Cancel()
	}
}

// Wait blocks until the session finishes and returns its report path.
func (m *Manager) Wait(id string) (string, error) {
	m.mu.Lock()
	act := m.active
	m.mu.Unlock()

	if act == nil || act.id != id {
		if m.opts.Store != nil {
			if rec, err := m.opts.Store.Get(id); err == nil && rec.Status != domain.SessionRunning {
				return rec.ReportPath, nil
			}
		}
		return "", fmt.Errorf("unknown session %s", id)
	}

	<-act.done
	return act.reportPath, act.err
}

// run executes one session: pool fan-out, join, aggregate, record, notify.
func (m *Manager) run(act *activeSession, jobs []domain.ExtractionJob, staging *output.Staging, sitesRequested []string) {
	defer close(act.done)

	start := time.Now()
	ctx, cancel := context.WithTimeout(act.token.Context(), joinDeadline)
	defer cancel()

	runner := m.opts.NewRunner(staging)
	workerCount := min(len(jobs), m.opts.Workers)

	jobCh := make(chan domain.ExtractionJob)
	var wg sync.WaitGroup
	for workerID := range workerCount {
		wg.Add(1)
		go m.worker(ctx, runner, jobCh, &wg, workerID)
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()

	if act.token.Cancelled() {
		staging.Remove()
		m.putRecord(domain.SessionRecord{
			ID:         act.id,
			Status:     domain.SessionCancelled,
			StartedAt:  start,
			FinishedAt: time.Now(),
		})
		return
	}

	reportPath, rows, err := m.opts.Aggregator(staging, act.id)
	if err != nil {
		m.log.ErrorObj("aggregation failed", "session_aggregate_error", map[string]any{
			"session_id": act.id,
			"error":      err.Error(),
		})
		act.err = err
		return
	}
	act.reportPath = reportPath

	m.putRecord(domain.SessionRecord{
		ID:         act.id,
		Status:     domain.SessionCompleted,
		ReportPath: reportPath,
		Rows:       rows,
		StartedAt:  start,
		FinishedAt: time.Now(),
	})

	m.notify(domain.ReportEvent{
		SessionID:   act.id,
		ReportPath:  reportPath,
		Rows:        rows,
		Sites:       sitesRequested,
		GeneratedAt: time.Now(),
	})

	m.log.InfoObj("session completed", "session_done", map[string]any{
		"session_id": act.id,
		"report":     reportPath,
		"rows":       rows,
		"elapsed":    time.Since(start).String(),
	})
}

// worker drains the job channel, resolving each job's adapter and running
// its pipeline. Job failures are logged, never propagated: a session with
// every job failing still produces a report.
func (m *Manager) worker(ctx context.Context, runner Runner, jobCh <-chan domain.ExtractionJob, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for job := range jobCh {
		if ctx.Err() != nil {
			return
		}

		adapter, err := m.opts.Registry.AdapterFor(job.SiteURL)
		if err != nil {
			m.log.ErrorObj("job skipped, unsupported site", "session_job_config_error", map[string]any{
				"worker_id": workerID,
				"job_id":    job.ID,
				"site":      job.SiteURL,
				"error":     err.Error(),
			})
			continue
		}

		start := time.Now()
		if err := runner.Run(ctx, job, adapter); err != nil {
			m.log.ErrorObj("job finished with error", "session_job_error", map[string]any{
				"worker_id": workerID,
				"job_id":    job.ID,
				"site":      job.SiteURL,
				"error":     err.Error(),
			})
			continue
		}
		m.log.InfoObj("job finished", "session_job_done", map[string]any{
			"worker_id": workerID,
			"job_id":    job.ID,
			"site":      job.SiteURL,
			"elapsed":   time.Since(start).String(),
		})
	}
}

func (m *Manager) putRecord(rec domain.SessionRecord) {
	if m.opts.Store == nil {
		return
	}
	if err := m.opts.Store.Put(rec); err != nil {
		m.log.WarnObj("failed to persist session record", "session_store_error", map[string]any{
			"session_id": rec.ID,
			"error":      err.Error(),
		})
	}
}

// notify publishes the report event to every configured sink, best effort.
func (m *Manager) notify(evt domain.ReportEvent) {
	for _, sink := range m.opts.Sinks {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := sink.Publish(ctx, evt); err != nil {
			m.log.ErrorObj("report sink publish failed", "session_sink_error", map[string]any{
				"sink_id":    sink.ID(),
				"session_id": evt.SessionID,
				"error":      err.Error(),
			})
		}
		cancel()
	}
}

// parseJobs validates the submitted date strings and assigns job ids.
func parseJobs(reqs []JobRequest) ([]domain.ExtractionJob, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no jobs submitted")
	}

	jobs := make([]domain.ExtractionJob, 0, len(reqs))
	for i, req := range reqs {
		from, err := time.Parse(dateLayout, req.FromDate)
		if err != nil {
			return nil, fmt.Errorf("job %d: bad from date %q: %w", i, req.FromDate, err)
		}
		to, err := time.Parse(dateLayout, req.ToDate)
		if err != nil {
			return nil, fmt.Errorf("job %d: bad to date %q: %w", i, req.ToDate, err)
		}
		if to.Before(from) {
			return nil, fmt.Errorf("job %d: to date %s precedes from date %s", i, req.ToDate, req.FromDate)
		}
		jobs = append(jobs, domain.ExtractionJob{
			ID:       strconv.Itoa(i),
			SiteURL:  req.SiteURL,
			FromDate: from,
			ToDate:   to,
		})
	}
	return jobs, nil
}
