package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	apperrors "github.com/target/jobboard-ui-api/internal/errors"
	"github.com/target/jobboard-ui-api/internal/observability/metrics"
	"github.com/target/jobboard-ui-api/internal/observability/statsd"
	"github.com/target/jobboard-ui-api/internal/ports"
)

// ErrNoSession is returned when an operation needs a signed-in user.
var ErrNoSession = errors.New("no active session")

// Notice texts emitted by SavedJobs.
const (
	MsgJobSaved     = "job saved"
	MsgJobUnsaved   = "job unsaved"
	MsgSaveFailed   = "failed to save job"
	MsgUnsaveFailed = "failed to unsave job"
)

// ToggleResult is the outcome of one Toggle call.
type ToggleResult struct {
	JobID string `json:"job_id"`
	// Saved is the membership the toggle asked for.
	Saved bool `json:"saved"`
	// Member is the local membership once this result was applied.
	Member bool   `json:"member"`
	Seq    uint64 `json:"seq"`
	// Stale is set when a newer toggle for the same job was issued before this one completed.
	Stale bool  `json:"stale"`
	Err   error `json:"-"`
}

// SavedJobsConfig holds the optional knobs of SavedJobs.
type SavedJobsConfig struct {
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// SavedJobsOptions groups dependencies for SavedJobs.
type SavedJobsOptions struct {
	Store    *SessionStore     // Required
	API      ports.JobBoardAPI // Required
	Notifier ports.Notifier    // Optional
	Config   SavedJobsConfig
}

// toggleState tracks in-flight toggles for one (user, job) pair.
type toggleState struct {
	latest  uint64
	pending int
}

// ackState is the last full saved set the backend accepted for one user. Before any
// request succeeds it holds the set the first in-flight toggle started from.
type ackState struct {
	saved   []string
	seq     uint64
	pending int
}

// SavedJobs applies saved-list toggles optimistically and reconciles them with the backend.
type SavedJobs struct {
	store    *SessionStore
	api      ports.JobBoardAPI
	notifier ports.Notifier
	timeout  time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink

	mu       sync.Mutex
	seq      uint64
	inflight map[toggleKey]*toggleState
	acks     map[string]*ackState
	wg       sync.WaitGroup
}

type toggleKey struct {
	userID string
	jobID  string
}

// NewSavedJobs constructs a SavedJobs mutator.
func NewSavedJobs(opts SavedJobsOptions) *SavedJobs {
	if opts.Store == nil {
		panic("SessionStore is required")
	}
	if opts.API == nil {
		panic("JobBoardAPI is required")
	}

	timeout := opts.Config.Timeout
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	logger := opts.Config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SavedJobs{
		store:    opts.Store,
		api:      opts.API,
		notifier: opts.Notifier,
		timeout:  timeout,
		logger:   logger.With("component", "saved_jobs"),
		metrics:  opts.Config.Metrics,
		inflight: make(map[toggleKey]*toggleState),
		acks:     make(map[string]*ackState),
	}
}

// Toggle flips the saved membership of jobID. The local change is applied before it returns;
// the backend update runs in the background and its result is delivered on the returned channel.
// Canceling ctx does not stop the update; it only means nobody is waiting for the result.
func (s *SavedJobs) Toggle(ctx context.Context, jobID string) (<-chan ToggleResult, error) {
	if jobID == "" {
		return nil, apperrors.ValidationField("job_id", "job id is required")
	}

	s.mu.Lock()
	sess := s.store.Current()
	if sess == nil {
		s.mu.Unlock()
		return nil, ErrNoSession
	}

	key := toggleKey{userID: sess.UserID, jobID: jobID}
	desired := !sess.HasSaved(jobID)

	ack, ok := s.acks[sess.UserID]
	if !ok {
		ack = &ackState{saved: slices.Clone(sess.Saved)}
		s.acks[sess.UserID] = ack
	}
	ack.pending++

	st, ok := s.inflight[key]
	if !ok {
		st = &toggleState{}
		s.inflight[key] = st
	}
	s.seq++
	seq := s.seq
	st.latest = seq
	st.pending++

	s.store.setMembership(sess.UserID, jobID, desired)
	snapshot := s.store.Current()
	s.wg.Add(1)
	s.mu.Unlock()

	if snapshot == nil {
		// Cleared between the read and the write; still settle the bookkeeping.
		snapshot = sess
	}

	out := make(chan ToggleResult, 1)
	go func() {
		defer s.wg.Done()
		defer close(out)

		start := time.Now()
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		err := s.api.UpdateSaved(callCtx, sess.UserID, sess.Token, snapshot.Saved)
		cancel()
		if err != nil {
			err = fmt.Errorf("update saved jobs: %w", err)
		}

		res := s.complete(key, seq, desired, snapshot.Saved, err)
		s.report(ctx, res, time.Since(start))
		out <- res
	}()

	return out, nil
}

// complete settles one finished request and returns its result. Every request carries the
// whole saved set, so a success records that set as acknowledged for the user, and local
// membership of each job that has nothing in flight is brought back to it.
func (s *SavedJobs) complete(key toggleKey, seq uint64, desired bool, sent []string, err error) ToggleResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.inflight[key]
	ack := s.acks[key.userID]
	st.pending--
	ack.pending--
	latest := seq == st.latest

	if err == nil && seq > ack.seq {
		ack.saved = slices.Clone(sent)
		ack.seq = seq
	}

	if apperrors.IsUnauthorized(err) {
		s.store.clearIfUser(key.userID)
	}

	if st.pending == 0 {
		delete(s.inflight, key)
	}
	if err != nil && latest {
		s.store.setMembership(key.userID, key.jobID, slices.Contains(ack.saved, key.jobID))
	}
	s.reconcileSettled(key.userID, ack.saved)
	if ack.pending == 0 {
		delete(s.acks, key.userID)
	}

	member := slices.Contains(ack.saved, key.jobID)
	if cur := s.store.Current(); cur != nil && cur.UserID == key.userID {
		member = cur.HasSaved(key.jobID)
	}

	return ToggleResult{
		JobID:  key.jobID,
		Saved:  desired,
		Member: member,
		Seq:    seq,
		Stale:  !latest,
		Err:    err,
	}
}

// reconcileSettled aligns every job of userID without an in-flight toggle to acked.
// Callers hold s.mu.
func (s *SavedJobs) reconcileSettled(userID string, acked []string) {
	cur := s.store.Current()
	if cur == nil || cur.UserID != userID {
		return
	}
	for _, id := range slices.Concat(cur.Saved, acked) {
		if _, busy := s.inflight[toggleKey{userID: userID, jobID: id}]; busy {
			continue
		}
		s.store.setMembership(userID, id, slices.Contains(acked, id))
	}
}

func (s *SavedJobs) report(ctx context.Context, res ToggleResult, d time.Duration) {
	action := "save"
	if !res.Saved {
		action = "unsave"
	}

	result := metrics.ResultSuccess
	switch {
	case res.Stale:
		result = metrics.ResultStale
	case res.Err != nil:
		result = metrics.ResultError
	}
	metrics.EmitToggle(s.metrics, metrics.ToggleMetric{Action: action, Result: result, Duration: d, Err: res.Err})

	if res.Err != nil {
		s.logger.WarnContext(ctx, "saved job update failed",
			"job_id", res.JobID,
			"action", action,
			"seq", res.Seq,
			"stale", res.Stale,
			"error", res.Err,
		)
	}

	if res.Stale || s.notifier == nil {
		return
	}
	s.notifier.Notify(toggleNotice(res))
}

func toggleNotice(res ToggleResult) ports.Notice {
	switch {
	case res.Err != nil && res.Saved:
		return ports.Notice{Kind: ports.NoticeError, Message: MsgSaveFailed}
	case res.Err != nil:
		return ports.Notice{Kind: ports.NoticeError, Message: MsgUnsaveFailed}
	case res.Saved:
		return ports.Notice{Kind: ports.NoticeSuccess, Message: MsgJobSaved}
	default:
		return ports.Notice{Kind: ports.NoticeSuccess, Message: MsgJobUnsaved}
	}
}

// Pending reports the number of in-flight toggles for jobID across users.
func (s *SavedJobs) Pending(jobID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, st := range s.inflight {
		if k.jobID == jobID {
			n += st.pending
		}
	}
	return n
}

// Wait blocks until every in-flight toggle has completed.
func (s *SavedJobs) Wait() {
	s.wg.Wait()
}
