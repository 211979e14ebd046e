// Package verifier checks identity claims against the external tax-ID
// registry and owns the per-profile verification result.
//
// At most one registry request runs per profile. A duplicate Verify for the
// same claim joins the running request; a Verify for a different claim is
// refused. Changing the claim bumps a generation counter so a response that
// arrives for an older claim is dropped instead of overwriting the reset.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"vitrine/internal/identity/models"
	"vitrine/internal/identity/registry"
	"vitrine/internal/platform/tracer"
	id "vitrine/pkg/domain"
	dErrors "vitrine/pkg/domain-errors"
	"vitrine/pkg/platform/circuit"
	"vitrine/pkg/requestcontext"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultAttemptLimit = 5
	defaultWindow       = 10 * time.Minute

	mismatchMessage = "The tax ID does not match the name and birth date provided."
	validMessage    = "Tax ID verified."
	limitMessage    = "The registry limit for verifications was reached. Please try again later."
)

// ErrResultDiscarded is returned when the claim changed while its
// verification was running.
var ErrResultDiscarded = errors.New("claim changed during verification")

var verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vitrine_identity_verifications_total",
	Help: "Identity verification attempts, labeled by resulting state",
}, []string{"state"})

// Registry is the external tax-ID registry.
type Registry interface {
	Verify(ctx context.Context, claim models.Claim) (*registry.Response, error)
}

type entry struct {
	claim      models.Claim
	result     models.Result
	generation uint64
	inFlight   *models.Claim
}

type Verifier struct {
	registry Registry
	breaker  *circuit.Breaker
	limiter  *attemptLimiter
	tracer   tracer.Tracer
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time

	group   singleflight.Group
	mu      sync.Mutex
	entries map[id.ProfileID]*entry
}

type Option func(*Verifier)

// WithTimeout bounds each registry request. Defaults to 10s.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithAttemptLimit caps attempts per profile within window. A limit of 0
// disables the local limit.
func WithAttemptLimit(limit int, window time.Duration) Option {
	return func(v *Verifier) {
		if window <= 0 {
			window = defaultWindow
		}
		v.limiter = newAttemptLimiter(limit, window)
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(v *Verifier) {
		if b != nil {
			v.breaker = b
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(v *Verifier) {
		if t != nil {
			v.tracer = t
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

func New(reg Registry, opts ...Option) *Verifier {
	v := &Verifier{
		registry: reg,
		breaker:  circuit.New("tax-registry"),
		limiter:  newAttemptLimiter(defaultAttemptLimit, defaultWindow),
		tracer:   tracer.NewNoop(),
		logger:   slog.Default(),
		timeout:  defaultTimeout,
		now:      time.Now,
		entries:  make(map[id.ProfileID]*entry),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Result returns the current verification result for the profile.
func (v *Verifier) Result(profileID id.ProfileID) models.Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	if e, ok := v.entries[profileID]; ok {
		return e.result
	}
	return models.NotAttempted()
}

// ObserveClaim records the profile's current claim. A claim different from
// the one the current result belongs to resets the result to not-attempted
// and invalidates any running attempt.
func (v *Verifier) ObserveClaim(profileID id.ProfileID, claim models.Claim) models.Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	e := v.entryLocked(profileID)
	v.observeLocked(e, claim.Normalized())
	return e.result
}

func (v *Verifier) observeLocked(e *entry, claim models.Claim) {
	if e.claim == claim {
		return
	}
	e.claim = claim
	e.generation++
	e.result = models.NotAttempted()
}

// Verify checks claim against the registry and returns the terminal result.
// A blank field fails with ErrMissingFields before any state change.
func (v *Verifier) Verify(ctx context.Context, profileID id.ProfileID, claim models.Claim) (models.Result, error) {
	if !claim.Complete() {
		return models.Result{}, dErrors.Wrap(models.ErrMissingFields, dErrors.CodeValidation,
			"full name, tax ID and birth date are required")
	}
	normalized := claim.Normalized()

	v.mu.Lock()
	e := v.entryLocked(profileID)
	if e.inFlight != nil && *e.inFlight != normalized {
		v.mu.Unlock()
		return models.Result{}, errInFlight()
	}
	if e.inFlight == nil {
		v.observeLocked(e, normalized)
	}
	generation := e.generation
	v.mu.Unlock()

	// The shared attempt outlives any single caller's cancellation and is
	// bounded by the verifier timeout instead.
	attemptCtx := context.WithoutCancel(ctx)
	key := profileID.String() + "|" + tracer.HashTaxID(normalized.TaxID+"|"+normalized.FullName+"|"+normalized.BirthDate)
	out, _, shared := v.group.Do(key, func() (any, error) {
		return v.attempt(attemptCtx, profileID, normalized, generation), nil
	})
	if shared {
		v.logger.DebugContext(ctx, "joined in-flight verification", "profile_id", profileID.String())
	}
	o := out.(outcome)
	switch {
	case o.blocked:
		return models.Result{}, errInFlight()
	case !o.applied:
		return v.Result(profileID), ErrResultDiscarded
	}
	return o.result, nil
}

type outcome struct {
	result  models.Result
	applied bool
	blocked bool
}

func errInFlight() error {
	return dErrors.Wrap(models.ErrVerificationInFlight, dErrors.CodeConflict,
		"a verification is already running for a different claim")
}

// attempt marks the profile in flight, calls the registry and applies the
// result if the claim's generation is unchanged.
func (v *Verifier) attempt(ctx context.Context, profileID id.ProfileID, claim models.Claim, generation uint64) outcome {
	v.mu.Lock()
	e := v.entryLocked(profileID)
	if e.inFlight != nil {
		v.mu.Unlock()
		return outcome{blocked: true}
	}
	if e.generation != generation {
		v.mu.Unlock()
		return outcome{}
	}
	e.inFlight = &claim
	e.result = models.Result{State: models.StateValidating}
	v.mu.Unlock()

	ctx, span := v.tracer.Start(ctx, tracer.SpanIdentityVerify,
		tracer.String(tracer.AttrProfileID, profileID.String()),
		tracer.String(tracer.AttrTaxIDHash, tracer.HashTaxID(claim.TaxID)),
	)

	result := v.call(ctx, span, profileID, claim)
	now := v.now()
	result.AttemptedAt = &now

	v.mu.Lock()
	e.inFlight = nil
	applied := e.generation == generation
	if applied {
		e.result = result
	}
	v.mu.Unlock()

	span.SetAttributes(tracer.String(tracer.AttrOutcome, string(result.State)))
	if !applied {
		span.AddEvent(tracer.EventDiscarded)
	}
	span.End(nil)

	verificationsTotal.WithLabelValues(string(result.State)).Inc()
	v.logger.InfoContext(ctx, "identity verification finished",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", profileID.String(),
		"tax_id_hash", tracer.HashTaxID(claim.TaxID),
		"state", string(result.State),
		"applied", applied,
	)
	return outcome{result: result, applied: applied}
}

func (v *Verifier) call(ctx context.Context, span tracer.Span, profileID id.ProfileID, claim models.Claim) models.Result {
	if ok, retryAt := v.limiter.allow(profileID.String(), v.now()); !ok {
		span.AddEvent(tracer.EventLocalLimit)
		return models.Result{State: models.StateRateLimited, Message: localLimitMessage(retryAt.Sub(v.now()))}
	}
	if !v.breaker.Allow() {
		span.AddEvent(tracer.EventCircuitOpen, tracer.String(tracer.AttrCircuitState, v.breaker.State().String()))
		return models.Result{State: models.StateError, Message: models.GenericFailureMessage}
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	callCtx, callSpan := v.tracer.Start(callCtx, tracer.SpanRegistryCall)
	resp, err := v.registry.Verify(callCtx, claim)
	callSpan.End(err)

	if err != nil {
		if registry.IsTransport(err) || errors.Is(err, context.DeadlineExceeded) {
			if _, change := v.breaker.RecordFailure(); change.Opened {
				v.logger.WarnContext(ctx, "tax registry circuit opened", "breaker", v.breaker.Name())
			}
		}
		v.logger.WarnContext(ctx, "tax registry call failed",
			"profile_id", profileID.String(),
			"category", string(registry.GetCategory(err)),
			"error", err,
		)
		return models.Result{State: models.StateError, Message: models.GenericFailureMessage}
	}
	if resp == nil {
		return models.Result{State: models.StateError, Message: models.GenericFailureMessage}
	}
	if _, change := v.breaker.RecordSuccess(); change.Closed {
		v.logger.InfoContext(ctx, "tax registry circuit closed", "breaker", v.breaker.Name())
	}

	switch {
	case resp.LimitReached:
		msg := resp.Message
		if msg == "" {
			msg = limitMessage
		}
		return models.Result{State: models.StateRateLimited, Message: msg}
	case resp.Valid:
		return models.Result{State: models.StateValid, Message: orDefault(resp.Message, validMessage)}
	default:
		return models.Result{State: models.StateInvalid, Message: orDefault(resp.Message, mismatchMessage)}
	}
}

func (v *Verifier) entryLocked(profileID id.ProfileID) *entry {
	e, ok := v.entries[profileID]
	if !ok {
		e = &entry{result: models.NotAttempted()}
		v.entries[profileID] = e
	}
	return e
}

func localLimitMessage(wait time.Duration) string {
	minutes := int(math.Ceil(wait.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("Too many verification attempts. Please try again in %d %s.", minutes, unit)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
