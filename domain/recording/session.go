// Package recording implements the capture session state machine: a take
// is a sequence of segments opened on start/resume and closed on
// pause/finish, stitched together at export.
package recording

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/invisicam-go/domain/errs"
)

// Options wires a Session to its collaborators.
type Options struct {
	Recorder Recorder
	// HasBackground gates Start. Nil means no requirement.
	HasBackground func() bool
	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger *slog.Logger
}

// Session is one recording take. It is safe for concurrent use: the refresh
// loop offers frames while user actions drive transitions. Segments are
// closed outside the lock so Offer never waits on an encoder flush.
type Session struct {
	mu            sync.Mutex
	flushed       *sync.Cond
	id            string
	state         State
	rec           Recorder
	hasBackground func() bool
	now           func() time.Time
	logger        *slog.Logger
	listeners     []StateListener

	startedAt      time.Time
	pausedTotal    time.Duration
	pauseStartedAt time.Time

	open     Segment
	openedAt time.Time
	segments []ClosedSegment
	exported bool
	// closing counts detached segments whose Close has not returned yet.
	closing int
	// gen changes on Discard so late closes do not refill dropped slots.
	gen uint64
}

// detached is a segment taken out of the session, waiting to be closed.
// slot is its reserved index in segments, or -1 when its data is dropped.
type detached struct {
	seg      Segment
	slot     int
	gen      uint64
	openedAt time.Time
}

// NewSession returns an idle session.
func NewSession(opts Options) *Session {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	s := &Session{
		id:            uuid.NewString(),
		state:         StateIdle,
		rec:           opts.Recorder,
		hasBackground: opts.HasBackground,
		now:           now,
		logger:        opts.Logger,
	}
	s.flushed = sync.NewCond(&s.mu)
	return s
}

// ID identifies the take in logs and export metadata.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddListener registers a transition listener.
func (s *Session) AddListener(l StateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Start opens the first segment. Requires a captured background.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		st := s.state
		s.mu.Unlock()
		return &errs.InvalidTransitionError{Op: "start", State: st.String()}
	}
	if s.hasBackground != nil && !s.hasBackground() {
		s.mu.Unlock()
		return &errs.PreconditionError{Op: "start", Requirement: "captured background"}
	}
	if err := s.openSegmentLocked(ctx, "start"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.startedAt = s.openedAt
	s.pausedTotal = 0
	s.pauseStartedAt = time.Time{}
	s.commit(StateRecording)
	return nil
}

// Pause closes the open segment and freezes the elapsed clock.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.state != StateRecording {
		st := s.state
		s.mu.Unlock()
		return &errs.InvalidTransitionError{Op: "pause", State: st.String()}
	}
	d := s.detachLocked(true)
	s.pauseStartedAt = s.now()
	s.commit(StatePaused)
	return s.closeDetached(d)
}

// Resume opens a fresh segment and adds the pause interval to the
// accumulated pause time. On failure the session stays paused. A segment
// still closing finishes before the next one opens.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	for s.closing > 0 {
		s.flushed.Wait()
	}
	if s.state != StatePaused {
		st := s.state
		s.mu.Unlock()
		return &errs.InvalidTransitionError{Op: "resume", State: st.String()}
	}
	if err := s.openSegmentLocked(ctx, "resume"); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.pauseStartedAt.IsZero() {
		s.pausedTotal += s.openedAt.Sub(s.pauseStartedAt)
		s.pauseStartedAt = time.Time{}
	}
	s.commit(StateRecording)
	return nil
}

// Finish closes the final segment (pausing if recording) and makes the take
// available for export. No data is accepted afterwards.
func (s *Session) Finish() error {
	s.mu.Lock()
	var d *detached
	switch s.state {
	case StateRecording:
		d = s.detachLocked(true)
		s.pauseStartedAt = s.now()
	case StatePaused:
	default:
		st := s.state
		s.mu.Unlock()
		return &errs.InvalidTransitionError{Op: "finish", State: st.String()}
	}
	s.commit(StateFinalized)
	return s.closeDetached(d)
}

// Discard drops every segment and resets timing. It never fails; a close
// error from an open segment is only logged.
func (s *Session) Discard() {
	s.mu.Lock()
	d := s.detachLocked(false)
	s.gen++
	s.segments = nil
	s.startedAt = time.Time{}
	s.pausedTotal = 0
	s.pauseStartedAt = time.Time{}
	s.openedAt = time.Time{}
	if s.state == StateDiscarded {
		s.mu.Unlock()
	} else {
		s.commit(StateDiscarded)
	}
	_ = s.closeDetached(d)
}

// Toggle starts, pauses or resumes depending on the current state. Only
// starting needs a background.
func (s *Session) Toggle(ctx context.Context) error {
	st := s.State()
	if st.Terminal() {
		return &errs.InvalidTransitionError{Op: "toggle", State: st.String()}
	}
	switch st {
	case StateIdle:
		return s.Start(ctx)
	case StateRecording:
		return s.Pause()
	default:
		return s.Resume(ctx)
	}
}

// Offer forwards a composited frame to the open segment, if any.
func (s *Session) Offer(frame *image.RGBA) {
	if frame == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRecording && s.open != nil {
		s.open.Offer(frame)
	}
}

// Elapsed returns active recording time: wall time since start minus every
// pause. It is frozen while paused or finalized and zero otherwise.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

// PausedTotal returns the accumulated duration of completed pauses.
func (s *Session) PausedTotal() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pausedTotal
}

// Segments returns the number of closed segments.
func (s *Session) Segments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

// Export concatenates every closed segment in open order. Only valid once
// finalized; a successful export releases the segment data. It waits for
// segments still being closed.
func (s *Session) Export() (Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.closing > 0 {
		s.flushed.Wait()
	}
	if s.state != StateFinalized {
		return Blob{}, &errs.InvalidTransitionError{Op: "export", State: s.state.String()}
	}
	if s.exported || len(s.segments) == 0 {
		return Blob{}, errs.ErrNothingToExport
	}
	total := 0
	for _, seg := range s.segments {
		total += seg.Bytes
	}
	data := make([]byte, 0, total)
	for _, seg := range s.segments {
		for _, c := range seg.Chunks {
			data = append(data, c...)
		}
	}
	mediaType := ""
	if s.rec != nil {
		mediaType = s.rec.MediaType()
	}
	blob := Blob{
		SessionID: s.id,
		MediaType: mediaType,
		Data:      data,
		Segments:  len(s.segments),
		Duration:  s.elapsedLocked(),
		CreatedAt: s.now(),
	}
	s.segments = nil
	s.exported = true
	return blob, nil
}

func (s *Session) elapsedLocked() time.Duration {
	switch s.state {
	case StateRecording:
		return s.now().Sub(s.startedAt) - s.pausedTotal
	case StatePaused, StateFinalized:
		if s.startedAt.IsZero() || s.pauseStartedAt.IsZero() {
			return 0
		}
		return s.pauseStartedAt.Sub(s.startedAt) - s.pausedTotal
	default:
		return 0
	}
}

func (s *Session) openSegmentLocked(ctx context.Context, op string) error {
	if s.open != nil {
		return fmt.Errorf("recording: %s with a segment already open", op)
	}
	if s.rec == nil {
		return &errs.CaptureUnavailableError{Op: op, Cause: errors.New("no recorder")}
	}
	seg, err := s.rec.Open(ctx)
	if err != nil {
		if errs.Is(err, errs.ErrCaptureUnavailable) {
			return err
		}
		return &errs.CaptureUnavailableError{Op: op, Cause: err}
	}
	s.open = seg
	s.openedAt = s.now()
	if s.logger != nil {
		s.logger.Debug("recording: segment opened", "session", s.id, "index", len(s.segments))
	}
	return nil
}

// detachLocked takes the open segment out of the session. With keep set it
// reserves the next slot in segments so data lands in open order however
// long Close takes. Must be called with s.mu held.
func (s *Session) detachLocked(keep bool) *detached {
	if s.open == nil {
		return nil
	}
	d := &detached{seg: s.open, slot: -1, gen: s.gen, openedAt: s.openedAt}
	s.open = nil
	if keep {
		d.slot = len(s.segments)
		s.segments = append(s.segments, ClosedSegment{Index: d.slot, OpenedAt: s.openedAt})
		s.closing++
	}
	return d
}

// closeDetached closes a detached segment without holding s.mu and stores
// whatever data it produced in the reserved slot, even when Close reports
// an error.
func (s *Session) closeDetached(d *detached) error {
	if d == nil {
		return nil
	}
	chunks, err := d.seg.Close()
	if d.slot < 0 {
		if err != nil && s.logger != nil {
			s.logger.Warn("recording: discard close failed", "session", s.id, "error", err)
		}
		return nil
	}

	s.mu.Lock()
	s.closing--
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	if d.gen == s.gen && d.slot < len(s.segments) {
		s.segments[d.slot] = ClosedSegment{Index: d.slot, Chunks: chunks, Bytes: n, OpenedAt: d.openedAt, ClosedAt: s.now()}
	}
	s.flushed.Broadcast()
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("recording: segment closed", "session", s.id, "index", d.slot, "chunks", len(chunks), "bytes", n)
	}
	if err != nil {
		return fmt.Errorf("recording: close segment %d: %w", d.slot, err)
	}
	return nil
}

// commit sets the new state, releases the lock and notifies listeners.
// Must be called with s.mu held.
func (s *Session) commit(next State) {
	prev := s.state
	s.state = next
	listeners := make([]StateListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Debug("recording state transition", "session", s.id, "from", prev.String(), "to", next.String())
	}
	for _, l := range listeners {
		l(prev, next)
	}
}
