// Package assistant turns postal-code input into address fields.
//
// Every resolution gets a sequence number when it is issued. A result is
// handed to the sink only if no later resolution was issued in the meantime,
// so responses that arrive out of order never overwrite newer ones.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"vitrine/internal/address/lookup"
	pkgstrings "vitrine/pkg/platform/strings"
)

const defaultQuietPeriod = 500 * time.Millisecond

// ErrSuperseded is returned when a later resolution was issued before this
// one finished.
var ErrSuperseded = errors.New("postal code resolution superseded")

const (
	MessageNotFound    = "Postal code not found. Please fill in the address manually."
	MessageMalformed   = "Postal code must have 8 digits."
	MessageUnavailable = "We could not look up this postal code right now. Please fill in the address manually."
)

// Lookup resolves a normalized postal code.
type Lookup interface {
	Lookup(ctx context.Context, postalCode string) (*lookup.Address, error)
}

// Resolution is the outcome delivered to the sink. Address is set on
// success; otherwise Err and Message describe a non-fatal failure and the
// address fields must be left alone.
type Resolution struct {
	PostalCode string
	Address    *lookup.Address
	Err        error
	Message    string
}

// Sink applies a resolution. It is called with the assistant's lock held and
// must not call back into the assistant.
type Sink func(ctx context.Context, r Resolution)

type Assistant struct {
	lookup  Lookup
	sink    Sink
	quiet   time.Duration
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	seq      uint64
	inputGen uint64
	timer    *time.Timer
	closed   bool
}

type Option func(*Assistant)

func WithQuietPeriod(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.quiet = d
		}
	}
}

// WithTimeout bounds resolutions issued from debounced input.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

func New(l Lookup, sink Sink, opts ...Option) *Assistant {
	if sink == nil {
		sink = func(context.Context, Resolution) {}
	}
	a := &Assistant{
		lookup:  l,
		sink:    sink,
		quiet:   defaultQuietPeriod,
		timeout: 10 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Input reports a keystroke-level change of the postal code field. Any
// pending debounce is cancelled and any in-flight resolution is superseded;
// a new debounce is armed only when the input has exactly eight digits.
func (a *Assistant) Input(raw string) {
	code := pkgstrings.DigitsOnly(raw)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.inputGen++
	a.seq++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if len(code) != lookup.PostalCodeDigits {
		return
	}
	gen := a.inputGen
	a.timer = time.AfterFunc(a.quiet, func() {
		if !a.stillCurrent(gen) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if _, err := a.Resolve(ctx, code); err != nil && !errors.Is(err, ErrSuperseded) {
			a.logger.DebugContext(ctx, "debounced postal code resolution failed", "error", err)
		}
	})
}

// Resolve looks the code up immediately. The result reaches the sink only
// if this is still the latest issued resolution; otherwise ErrSuperseded.
func (a *Assistant) Resolve(ctx context.Context, postalCode string) (*lookup.Address, error) {
	code, err := lookup.NormalizePostalCode(postalCode)
	if err != nil {
		a.mu.Lock()
		a.sink(ctx, Resolution{PostalCode: pkgstrings.DigitsOnly(postalCode), Err: err, Message: MessageMalformed})
		a.mu.Unlock()
		return nil, err
	}

	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	addr, lookupErr := a.lookup.Lookup(ctx, code)

	a.mu.Lock()
	defer a.mu.Unlock()
	if seq != a.seq || a.closed {
		return nil, ErrSuperseded
	}
	res := Resolution{PostalCode: code, Address: addr, Err: lookupErr}
	if lookupErr != nil {
		res.Address = nil
		res.Message = messageFor(lookupErr)
	}
	a.sink(ctx, res)
	if lookupErr != nil {
		return nil, lookupErr
	}
	return addr, nil
}

// stillCurrent reports whether no Input arrived after the one that armed gen.
func (a *Assistant) stillCurrent(gen uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.closed && a.inputGen == gen
}

// Close cancels any pending debounce and drops in-flight results.
func (a *Assistant) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, lookup.ErrPostalCodeNotFound):
		return MessageNotFound
	case errors.Is(err, lookup.ErrMalformedPostalCode):
		return MessageMalformed
	default:
		return MessageUnavailable
	}
}
