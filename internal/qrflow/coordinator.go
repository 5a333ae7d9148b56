// Package qrflow owns the lifecycle of a payment QR code: initiate a
// payment intent, poll until the backend has generated the QR artifact, arm
// a countdown to its expiry, and allow regeneration after expiry. One
// coordinator holds at most one intent; starting a new one always tears the
// previous one down first, so timers can never overlap across intents.
package qrflow

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/cassiomorais/qrpay/internal/apiclient"
	"github.com/cassiomorais/qrpay/internal/domain/errors"
	"github.com/cassiomorais/qrpay/internal/domain/payment"
	"github.com/cassiomorais/qrpay/pkg/clock"
	"github.com/rs/zerolog"
)

// PaymentService is the slice of the payment client the coordinator needs.
type PaymentService interface {
	Initiate(ctx context.Context, req apiclient.InitiatePaymentRequest) (*apiclient.InitiatePaymentResponse, error)
	Status(ctx context.Context, transactionID int64) (*apiclient.Payment, error)
}

// Metrics receives lifecycle events. All methods may be called from timer
// callbacks.
type Metrics interface {
	QRPollTick()
	QRReady(pollAttempts int)
	QRPollTimeout()
	QRExpired()
}

type noopMetrics struct{}

func (noopMetrics) QRPollTick()    {}
func (noopMetrics) QRReady(int)    {}
func (noopMetrics) QRPollTimeout() {}
func (noopMetrics) QRExpired()     {}

// Config bounds the poll loop and the QR lifetime.
type Config struct {
	PollInterval    time.Duration
	MaxPollAttempts int
	// DefaultTTL applies when the backend issues a QR without an expiry.
	DefaultTTL time.Duration
}

// DefaultConfig polls every 5 seconds for up to 5 minutes.
func DefaultConfig() Config {
	return Config{
		PollInterval:    5 * time.Second,
		MaxPollAttempts: 60,
		DefaultTTL:      15 * time.Minute,
	}
}

// Snapshot is the observable coordinator state handed to subscribers.
type Snapshot struct {
	State         payment.IntentState `json:"state"`
	TransactionID int64               `json:"transactionId,omitempty"`
	QRCode        string              `json:"qrCode,omitempty"`
	ExpiresAt     *time.Time          `json:"expiresAt,omitempty"`
	PollAttempt   int                 `json:"pollAttempt"`
	Countdown     payment.Countdown   `json:"countdown"`
	// LastError is a short human-readable message, empty when the last
	// operation succeeded.
	LastError string `json:"lastError,omitempty"`
}

// Coordinator drives the QR state machine. All mutation happens under one
// mutex; timer callbacks carry the generation they were armed for and
// become no-ops once a newer intent exists.
type Coordinator struct {
	cfg      Config
	payments PaymentService
	sched    clock.Scheduler
	metrics  Metrics
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	state           payment.IntentState
	intent          *payment.Intent
	userID          int64
	countdown       payment.Countdown
	lastError       string
	gen             uint64
	cancelPoll      clock.CancelFunc
	cancelCountdown clock.CancelFunc
	listeners       map[int]func(Snapshot)
	nextListener    int
	closed          bool
}

// New creates an idle Coordinator. metrics may be nil.
func New(payments PaymentService, sched clock.Scheduler, metrics Metrics, cfg Config, log zerolog.Logger) *Coordinator {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		cfg:       cfg,
		payments:  payments,
		sched:     sched,
		metrics:   metrics,
		log:       log.With().Str("component", "qrflow").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		state:     payment.StateIdle,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Initiate starts a new payment intent for the user and begins polling for
// its QR code. The first poll happens before Initiate returns; subsequent
// polls run on the configured interval.
func (c *Coordinator) Initiate(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return errors.ErrInvalidUserID
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.ErrCoordinatorClosed
	}
	if c.state == payment.StatePolling || c.state == payment.StateInitiating {
		c.mu.Unlock()
		return errors.ErrPollInProgress
	}
	c.teardownLocked()
	c.state = payment.StateInitiating
	c.userID = userID
	c.intent = nil
	c.countdown = payment.Countdown{}
	c.lastError = ""
	startGen := c.gen
	c.mu.Unlock()
	c.notify()

	resp, err := c.payments.Initiate(ctx, apiclient.InitiatePaymentRequest{UserID: userID})

	c.mu.Lock()
	if c.closed || c.gen != startGen || c.state != payment.StateInitiating {
		// Close or Clear ran while the call was in flight and already owns
		// the state; arming timers here would outlive the disposal.
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return errors.ErrCoordinatorClosed
		}
		return err
	}
	if err != nil {
		c.state = payment.StateIdle
		c.lastError = remoteMessage(err, "Could not start payment")
		c.mu.Unlock()
		c.notify()
		return err
	}
	c.intent = payment.NewIntent(resp.TransactionID, userID, c.sched.Now())
	c.state = payment.StatePolling
	gen := c.nextGenLocked()
	c.mu.Unlock()
	c.notify()

	c.log.Info().Int64("transaction_id", resp.TransactionID).Msg("Payment initiated, polling for QR code")

	c.pollOnce(gen)

	c.mu.Lock()
	if c.gen == gen && c.state == payment.StatePolling {
		c.cancelPoll = c.sched.Every(c.cfg.PollInterval, func() { c.pollOnce(gen) })
	}
	c.mu.Unlock()
	return nil
}

// Retry regenerates the QR code after expiry (or as a manual regenerate
// while one is still displayed). When no user is associated with the
// current intent it clears the display instead.
func (c *Coordinator) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.ErrCoordinatorClosed
	}
	switch c.state {
	case payment.StatePolling, payment.StateInitiating:
		c.mu.Unlock()
		return errors.ErrPollInProgress
	case payment.StateIdle:
		c.mu.Unlock()
		return errors.ErrNoActiveIntent
	}
	userID := c.userID
	c.mu.Unlock()

	if userID == 0 {
		c.Clear()
		return nil
	}
	return c.Initiate(ctx, userID)
}

// Clear discards the current intent and returns to Idle.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	c.teardownLocked()
	c.state = payment.StateIdle
	c.intent = nil
	c.userID = 0
	c.countdown = payment.Countdown{}
	c.lastError = ""
	c.mu.Unlock()
	c.notify()
}

// Close tears down all timers and rejects further operations. After Close
// returns no timer callback will mutate state.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.teardownLocked()
	c.closed = true
	c.state = payment.StateIdle
	c.mu.Unlock()
	c.cancel()
}

// Snapshot returns the current observable state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers an observer invoked after every state change. The
// returned func unsubscribes.
func (c *Coordinator) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// pollOnce runs a single status fetch. It is called synchronously from
// Initiate for the immediate first attempt and from the interval timer for
// the rest; the scheduler never overlaps callbacks, so at most one poll is
// in flight.
func (c *Coordinator) pollOnce(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.state != payment.StatePolling || c.intent == nil {
		c.mu.Unlock()
		return
	}
	c.intent.PollAttempt++
	attempt := c.intent.PollAttempt
	transactionID := c.intent.TransactionID
	c.mu.Unlock()

	c.metrics.QRPollTick()

	status, err := c.payments.Status(c.ctx, transactionID)

	c.mu.Lock()
	if c.gen != gen || c.state != payment.StatePolling || c.intent == nil {
		c.mu.Unlock()
		return
	}

	if err == nil && status.QRCode != nil && status.QRCode.Code != "" {
		now := c.sched.Now()
		expiresAt := now.Add(c.cfg.DefaultTTL)
		if status.QRCode.ExpiresAt != nil {
			expiresAt = *status.QRCode.ExpiresAt
		}
		c.intent.SetQR(status.QRCode.Code, expiresAt)
		c.teardownLocked()
		c.state = payment.StateReady
		c.lastError = ""
		countdownGen := c.nextGenLocked()
		c.mu.Unlock()

		c.metrics.QRReady(attempt)
		c.log.Info().Int64("transaction_id", transactionID).Int("attempts", attempt).Msg("QR code ready")
		c.notify()
		c.startCountdown(countdownGen)
		return
	}

	if err != nil {
		// Transient by assumption. Keep polling until the budget runs out.
		c.lastError = "Still generating your code, retrying"
		c.log.Warn().Err(err).Int("attempt", attempt).Msg("QR status fetch failed, will retry")
	}

	if attempt >= c.cfg.MaxPollAttempts {
		c.teardownLocked()
		c.state = payment.StateIdle
		c.intent = nil
		c.lastError = "QR code generation timed out, please try again"
		c.mu.Unlock()

		c.metrics.QRPollTimeout()
		c.log.Warn().Int64("transaction_id", transactionID).Msg("QR polling exhausted its attempt budget")
		c.notify()
		return
	}
	c.mu.Unlock()
	c.notify()
}

// startCountdown updates the countdown immediately, then once per second
// until expiry.
func (c *Coordinator) startCountdown(gen uint64) {
	if c.tickCountdown(gen) {
		return
	}
	c.mu.Lock()
	if c.gen == gen && c.state == payment.StateCounting {
		c.cancelCountdown = c.sched.Every(time.Second, func() { c.tickCountdown(gen) })
	}
	c.mu.Unlock()
}

// tickCountdown recomputes the remaining time. It reports whether the
// intent expired on this tick.
func (c *Coordinator) tickCountdown(gen uint64) bool {
	c.mu.Lock()
	if c.gen != gen || c.intent == nil || !c.intent.HasQR() {
		c.mu.Unlock()
		return true
	}
	c.countdown = c.intent.CountdownAt(c.sched.Now())
	if c.countdown.Expired {
		transactionID := c.intent.TransactionID
		c.teardownLocked()
		c.state = payment.StateExpired
		c.mu.Unlock()

		c.metrics.QRExpired()
		c.log.Info().Int64("transaction_id", transactionID).Msg("QR code expired")
		c.notify()
		return true
	}
	c.state = payment.StateCounting
	c.mu.Unlock()
	c.notify()
	return false
}

// teardownLocked cancels both timer families and bumps the generation so
// any already-fired stale callback is a no-op.
func (c *Coordinator) teardownLocked() {
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	if c.cancelCountdown != nil {
		c.cancelCountdown()
		c.cancelCountdown = nil
	}
	c.gen++
}

func (c *Coordinator) nextGenLocked() uint64 {
	c.gen++
	return c.gen
}

func (c *Coordinator) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:     c.state,
		Countdown: c.countdown,
		LastError: c.lastError,
	}
	if c.intent != nil {
		snap.TransactionID = c.intent.TransactionID
		snap.PollAttempt = c.intent.PollAttempt
		if c.intent.HasQR() {
			snap.QRCode = c.intent.QRCode
			expires := c.intent.ExpiresAt
			snap.ExpiresAt = &expires
		}
	}
	return snap
}

func (c *Coordinator) notify() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// remoteMessage prefers the backend's own message for display.
func remoteMessage(err error, fallback string) string {
	var re *apiclient.RemoteError
	if stderrors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return fallback
}
