// Package orchestrator drives the scan state machine: coalesced triggers,
// a single in-flight scan at a time, periodic rescans, and scan reporting,
// wired to the index manager and the scanner/index builder beneath it.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agersant/polaris/internal/index"
	"github.com/agersant/polaris/internal/indexmanager"
	"github.com/agersant/polaris/internal/scanner"
	"github.com/agersant/polaris/internal/vfs"
)

// State is one of the four scan states spec.md §4.9 names.
type State int

const (
	Initial State = iota
	Pending
	InProgress
	UpToDate
)

func (s State) String() string {
	switch s {
	case Initial:
		return "initial"
	case Pending:
		return "pending"
	case InProgress:
		return "in_progress"
	case UpToDate:
		return "up_to_date"
	default:
		return "unknown"
	}
}

// Report summarizes the most recently completed scan.
type Report struct {
	RunID           string
	LastStartTime   time.Time
	LastEndTime     time.Time
	NumSongsIndexed int
}

// Orchestrator runs the Initial -> Pending -> InProgress -> UpToDate scan
// state machine described in spec.md §4.9. trigger_scan() never blocks: it
// only flips state and, if needed, wakes the single worker goroutine.
type Orchestrator struct {
	mu      sync.Mutex
	state   State
	pending bool // a trigger arrived mid-scan; runWorker re-triggers once the current scan ends

	manager *indexmanager.Manager
	scanner *scanner.Scanner
	mounts  []vfs.Mount
	logger  zerolog.Logger

	wake     chan struct{}
	report   Report
	reportMu sync.RWMutex
}

// New returns an idle Orchestrator. Start must be called to launch its
// worker and (if interval > 0) its periodic-rescan ticker.
func New(manager *indexmanager.Manager, sc *scanner.Scanner, mounts []vfs.Mount, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		state:   Initial,
		manager: manager,
		scanner: sc,
		mounts:  mounts,
		logger:  logger,
		wake:    make(chan struct{}, 1),
	}
}

// State returns the current scan state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastReport returns the most recently completed scan's stats.
func (o *Orchestrator) LastReport() Report {
	o.reportMu.RLock()
	defer o.reportMu.RUnlock()
	return o.report
}

// TriggerScan moves Initial/UpToDate to Pending and wakes the worker. A
// trigger arriving while a scan is already Pending is a no-op: it coalesces
// into the scan already queued. A trigger arriving while InProgress is
// latched via pending so runWorker starts another scan immediately after the
// current one finishes, per spec.md §5.
func (o *Orchestrator) TriggerScan() {
	o.mu.Lock()
	switch o.state {
	case Initial, UpToDate:
		o.state = Pending
	case InProgress:
		o.pending = true
		o.mu.Unlock()
		return
	default:
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Start launches the single scan worker and, when interval is positive, a
// ticker that calls TriggerScan every interval. It returns once ctx is
// cancelled.
func (o *Orchestrator) Start(ctx context.Context, interval time.Duration) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		o.runWorker(ctx)
	}()

	if interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.runTicker(ctx, interval)
		}()
	}

	wg.Wait()
}

func (o *Orchestrator) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.wake:
		}

		o.mu.Lock()
		if o.state != Pending {
			o.mu.Unlock()
			continue
		}
		o.state = InProgress
		o.mu.Unlock()

		o.runScan(ctx)
		o.finishScan()
	}
}

// finishScan applies the state transition after one scan completes: a
// trigger latched during that scan (pending) immediately re-arms the worker
// instead of settling into UpToDate, per spec.md §5.
func (o *Orchestrator) finishScan() {
	o.mu.Lock()
	if o.pending {
		o.pending = false
		o.state = Pending
		o.mu.Unlock()
		select {
		case o.wake <- struct{}{}:
		default:
		}
		return
	}
	o.state = UpToDate
	o.mu.Unlock()
}

func (o *Orchestrator) runTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.TriggerScan()
		}
	}
}

// runScan performs one full scan end-to-end: build a fresh Index, install
// it, and persist it. It never returns an error to its caller: failures are
// logged, matching spec.md §7's "the orchestrator never fails a
// trigger_scan() call" policy.
func (o *Orchestrator) runScan(ctx context.Context) {
	runID := uuid.NewString()
	start := time.Now()
	o.logger.Info().Str("run_id", runID).Msg("scan started")

	idx := index.BuildFromScan(o.scanner, o.mounts, o.logger)
	o.manager.ReplaceIndex(idx)

	if err := o.manager.PersistIndex(idx); err != nil {
		o.logger.Error().Err(err).Str("run_id", runID).Msg("failed to persist index after scan")
	}

	end := time.Now()
	numSongs := len(idx.Collection.Songs)

	o.reportMu.Lock()
	o.report = Report{RunID: runID, LastStartTime: start, LastEndTime: end, NumSongsIndexed: numSongs}
	o.reportMu.Unlock()

	o.logger.Info().
		Str("run_id", runID).
		Int("songs", numSongs).
		Str("duration", humanize.RelTime(start, end, "", "")).
		Msg("scan finished")
}
