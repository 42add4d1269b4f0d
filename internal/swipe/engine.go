package swipe

import (
	"sync"
	"time"

	"github.com/Frankanator8/jobfinder/internal/model"
)

// Vec is a 2D displacement or velocity in screen units.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Options are the engine's tunables. The distance and velocity thresholds are
// deliberately independent knobs — neither is derived from the other.
type Options struct {
	DistanceThreshold float64       // horizontal displacement (px) that commits on release
	VelocityThreshold float64       // horizontal release speed (px/s) that commits on release
	RotationDivisor   float64       // drag rotation (degrees) = displacement.x / divisor
	CommitAngle       float64       // terminal rotation (degrees) of a committing card
	OffScreenOffset   float64       // horizontal displacement target of a committing card
	CommitDuration    time.Duration // forward animation length
	SnapBackDuration  time.Duration // reverse animation length
	Easing            Easing
}

// DefaultOptions returns the tuning used by the card stack UI.
func DefaultOptions() Options {
	return Options{
		DistanceThreshold: 100,
		VelocityThreshold: 800,
		RotationDivisor:   12,
		CommitAngle:       25,
		OffScreenOffset:   600,
		CommitDuration:    300 * time.Millisecond,
		SnapBackDuration:  500 * time.Millisecond,
		Easing:            EaseOutCubic,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DistanceThreshold == 0 {
		o.DistanceThreshold = def.DistanceThreshold
	}
	if o.VelocityThreshold == 0 {
		o.VelocityThreshold = def.VelocityThreshold
	}
	if o.RotationDivisor == 0 {
		o.RotationDivisor = def.RotationDivisor
	}
	if o.CommitAngle == 0 {
		o.CommitAngle = def.CommitAngle
	}
	if o.OffScreenOffset == 0 {
		o.OffScreenOffset = def.OffScreenOffset
	}
	if o.CommitDuration == 0 {
		o.CommitDuration = def.CommitDuration
	}
	if o.SnapBackDuration == 0 {
		o.SnapBackDuration = def.SnapBackDuration
	}
	if o.Easing == nil {
		o.Easing = def.Easing
	}
	return o
}

// DecisionHandler receives each decision exactly once, after the commit
// animation has completed. The engine does not await the handler.
type DecisionHandler func(job model.Job, decision model.Decision)

// Snapshot is an immutable view of the engine's state at one instant. The
// rendering layer subscribes to snapshots instead of mutating shared state.
type Snapshot struct {
	Phase        Phase      `json:"phase"`
	Front        *model.Job `json:"front,omitempty"`
	Displacement Vec        `json:"displacement"`
	Rotation     float64    `json:"rotation"`
	Opacity      float64    `json:"opacity"`
	QueueLen     int        `json:"queueLen"`
}

// animation captures the interpolation endpoints of one in-flight commit or
// snap-back. Snap-back interpolates from whatever the drag's displacement and
// angle were at release, never from a fixed start.
type animation struct {
	startedAt time.Time
	duration  time.Duration
	fromDisp  Vec
	toDisp    Vec
	fromRot   float64
	toRot     float64
	fade      bool
}

// Engine owns the working queue's front card, its drag state, and the
// commit/snap-back animation state machine.
//
// Transitions happen synchronously inside the calling goroutine; the mutex
// only serializes the scheduled animation-completion callback against caller
// events. The interactivity rule is the IDLE gate, not lock ordering: a
// pointer-down while any animation is in flight is ignored.
type Engine struct {
	mu         sync.Mutex
	opts       Options
	clock      Clock
	onDecision DecisionHandler

	queue   []model.Job
	phase   Phase
	disp    Vec
	anim    animation
	timer   Timer
	animSeq uint64
}

// New constructs an engine driven by the system clock.
func New(opts Options, onDecision DecisionHandler) *Engine {
	return NewWithClock(opts, onDecision, SystemClock())
}

// NewWithClock constructs an engine with an injected clock, so animation
// completions can be fired manually in tests.
func NewWithClock(opts Options, onDecision DecisionHandler, clock Clock) *Engine {
	return &Engine{
		opts:       opts.withDefaults(),
		clock:      clock,
		onDecision: onDecision,
		phase:      PhaseIdle,
	}
}

// Reset replaces the working queue, cancels any in-flight animation, and
// forces the state machine back to IDLE over the new front card. Used when a
// criteria change supersedes the current queue mid-flight.
func (e *Engine) Reset(jobs []model.Job) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelAnimationLocked()
	e.queue = append([]model.Job(nil), jobs...)
	e.phase = PhaseIdle
	e.disp = Vec{}
}

// Append adds jobs behind the current queue. The front card — possibly
// mid-gesture — is never disturbed.
func (e *Engine) Append(jobs []model.Job) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, jobs...)
}

// Front returns the card currently eligible for interaction.
func (e *Engine) Front() (model.Job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return model.Job{}, false
	}
	return e.queue[0], true
}

// Len returns the number of undecided cards in the working queue.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Phase returns the current machine phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// PointerDown begins a gesture on the front card. It reports whether the
// gesture was accepted: a pointer-down while an animation is in flight, or
// with no front card, is ignored.
func (e *Engine) PointerDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle || len(e.queue) == 0 {
		return false
	}
	e.phase = PhaseDragging
	e.disp = Vec{}
	return true
}

// PointerMove accumulates drag displacement. The rotation angle is derived
// from the horizontal displacement, never stored independently.
func (e *Engine) PointerMove(delta Vec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseDragging {
		return
	}
	e.disp.X += delta.X
	e.disp.Y += delta.Y
}

// PointerUp releases the gesture. The commit condition is evaluated here,
// once, never mid-drag: a commit starts the forward animation, anything else
// snaps back from the release displacement.
func (e *Engine) PointerUp(velocity Vec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseDragging {
		return
	}
	switch commitDirection(e.disp, velocity, e.opts) {
	case +1:
		e.startCommitLocked(PhaseCommittingRight)
	case -1:
		e.startCommitLocked(PhaseCommittingLeft)
	default:
		e.startSnapBackLocked()
	}
}

// SwipeRight commits the front card rightward (accept) without a gesture,
// as if a pointer-up had already satisfied the commit condition. It is a
// silent no-op when the queue is empty or the machine is not IDLE.
func (e *Engine) SwipeRight() { e.programmaticSwipe(PhaseCommittingRight) }

// SwipeLeft commits the front card leftward (reject) without a gesture.
// Same no-op rules as SwipeRight.
func (e *Engine) SwipeLeft() { e.programmaticSwipe(PhaseCommittingLeft) }

func (e *Engine) programmaticSwipe(target Phase) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle || len(e.queue) == 0 {
		return
	}
	e.startCommitLocked(target)
}

// Snapshot computes the render state at the given instant. During an
// animation the displacement, rotation and opacity are interpolated from the
// animation endpoints by the eased progress of elapsed wall-clock time.
func (e *Engine) Snapshot(at time.Time) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{Phase: e.phase, Opacity: 1, QueueLen: len(e.queue)}
	if len(e.queue) > 0 {
		front := e.queue[0]
		s.Front = &front
	}

	switch {
	case e.phase == PhaseDragging:
		s.Displacement = e.disp
		s.Rotation = e.rotationLocked()
	case IsAnimating(e.phase):
		t := e.opts.Easing(Progress(at.Sub(e.anim.startedAt), e.anim.duration))
		s.Displacement = Vec{
			X: lerp(e.anim.fromDisp.X, e.anim.toDisp.X, t),
			Y: lerp(e.anim.fromDisp.Y, e.anim.toDisp.Y, t),
		}
		s.Rotation = lerp(e.anim.fromRot, e.anim.toRot, t)
		if e.anim.fade {
			s.Opacity = 1 - t
		}
	}
	return s
}

// ── Internals ─────────────────────────────────────────────────────────────

// commitDirection evaluates the release: +1 commits right, -1 commits left,
// 0 snaps back. A commit needs the displacement past the distance threshold
// OR the release speed past the velocity threshold in the direction of the
// current displacement sign. Under correct sign checks both directions can
// never qualify at once, but the guard favors the sign of the displacement.
func commitDirection(disp, vel Vec, o Options) int {
	right := disp.X > o.DistanceThreshold || (vel.X > o.VelocityThreshold && disp.X > 0)
	left := disp.X < -o.DistanceThreshold || (vel.X < -o.VelocityThreshold && disp.X < 0)
	switch {
	case right && left:
		if disp.X >= 0 {
			return +1
		}
		return -1
	case right:
		return +1
	case left:
		return -1
	}
	return 0
}

func (e *Engine) rotationLocked() float64 {
	return e.disp.X / e.opts.RotationDivisor
}

func (e *Engine) startCommitLocked(target Phase) {
	offset := e.opts.OffScreenOffset
	angle := e.opts.CommitAngle
	if target == PhaseCommittingLeft {
		offset = -offset
		angle = -angle
	}
	e.phase = target
	e.anim = animation{
		startedAt: e.clock.Now(),
		duration:  e.opts.CommitDuration,
		fromDisp:  e.disp,
		toDisp:    Vec{X: offset, Y: e.disp.Y},
		fromRot:   e.rotationLocked(),
		toRot:     angle,
		fade:      true,
	}
	e.scheduleCompletionLocked(e.opts.CommitDuration)
}

func (e *Engine) startSnapBackLocked() {
	e.phase = PhaseSnappingBack
	e.anim = animation{
		startedAt: e.clock.Now(),
		duration:  e.opts.SnapBackDuration,
		fromDisp:  e.disp,
		toDisp:    Vec{},
		fromRot:   e.rotationLocked(),
		toRot:     0,
	}
	e.scheduleCompletionLocked(e.opts.SnapBackDuration)
}

func (e *Engine) scheduleCompletionLocked(d time.Duration) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.animSeq++
	seq := e.animSeq
	e.timer = e.clock.AfterFunc(d, func() { e.complete(seq) })
}

// cancelAnimationLocked invalidates any pending completion. A callback that
// already fired but has not taken the lock yet sees a stale sequence number
// and does nothing.
func (e *Engine) cancelAnimationLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.animSeq++
}

// complete is the scheduled "animation complete" transition. Commits emit the
// decision event and pop the front card; snap-backs simply discard the drag.
func (e *Engine) complete(seq uint64) {
	e.mu.Lock()
	if seq != e.animSeq {
		e.mu.Unlock()
		return
	}
	e.timer = nil

	var (
		emit     bool
		job      model.Job
		decision model.Decision
	)
	switch e.phase {
	case PhaseCommittingLeft, PhaseCommittingRight:
		outcome := model.OutcomeRejected
		if e.phase == PhaseCommittingRight {
			outcome = model.OutcomeAccepted
		}
		job = e.queue[0]
		e.queue = e.queue[1:]
		decision = model.Decision{JobID: job.ID, Outcome: outcome, At: e.clock.Now()}
		emit = true
	case PhaseSnappingBack:
		// front card unchanged
	default:
		e.mu.Unlock()
		return
	}
	e.phase = PhaseIdle
	e.disp = Vec{}
	handler := e.onDecision
	e.mu.Unlock()

	if emit && handler != nil {
		handler(job, decision)
	}
}
