package debounce

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/turngate/internal/bus"
	"github.com/nextlevelbuilder/turngate/internal/kv"
)

// Generator produces a reply for a coalesced turn. Any error is treated as
// a recoverable failure of that one turn.
type Generator interface {
	Generate(ctx context.Context, turnText string) (string, error)
}

// TurnRecorder persists a completed exchange. Optional: a nil recorder
// skips persistence entirely.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, userID, userName, turnText, replyText string) error
}

// Options tunes the dispatcher. Zero values fall back to the defaults
// from the original deployment.
type Options struct {
	Window         time.Duration // sliding debounce width
	DedupRetention time.Duration // provider redelivery guard
	LockTTL        time.Duration // flush lock lease
	TimerGrace     time.Duration // timer self-expiry margin past the window
	CheckEpsilon   time.Duration // deferred check slack past the window
}

func (o *Options) applyDefaults() {
	if o.Window <= 0 {
		o.Window = 4 * time.Second
	}
	if o.DedupRetention <= 0 {
		o.DedupRetention = time.Hour
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 5 * time.Second
	}
	if o.TimerGrace <= 0 {
		o.TimerGrace = 5 * time.Second
	}
	if o.CheckEpsilon <= 0 {
		o.CheckEpsilon = 50 * time.Millisecond
	}
}

// Dispatcher orchestrates the flush pipeline: dedup, buffer, rearm,
// deferred check, single-flight drain, reply, send. One dispatcher serves
// all users; per-user state lives in the shared store.
type Dispatcher struct {
	dedup     *Deduper
	buffer    *Buffer
	timer     *Timer
	lock      *Lock
	generator Generator
	sender    bus.Sender
	recorder  TurnRecorder
	opts      Options
	tracer    trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher wires the engine components over a shared store. sender
// and generator are required; recorder may be nil.
func NewDispatcher(store kv.Store, generator Generator, sender bus.Sender, recorder TurnRecorder, opts Options) *Dispatcher {
	opts.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		dedup:     NewDeduper(store, opts.DedupRetention),
		buffer:    NewBuffer(store, opts.DedupRetention),
		timer:     NewTimer(store, opts.Window, opts.TimerGrace),
		lock:      NewLock(store, opts.LockTTL),
		generator: generator,
		sender:    sender,
		recorder:  recorder,
		opts:      opts,
		tracer:    otel.Tracer("turngate/debounce"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Enqueue accepts one provider delivery: dedup, buffer append, timer
// rearm, then schedules a deferred flush check past the window. All reply
// work happens asynchronously; the caller only sees ingestion errors.
// A duplicate delivery is a silent no-op.
func (d *Dispatcher) Enqueue(ctx context.Context, msg bus.InboundMessage) error {
	accepted, err := d.dedup.Accept(ctx, msg.ProviderMessageID)
	if err != nil {
		return err
	}
	if !accepted {
		slog.Debug("duplicate delivery ignored", "user_id", msg.UserID, "message_id", msg.ProviderMessageID)
		return nil
	}

	// Append strictly before rearm: a due timer must never be observed
	// while its message is still missing from the buffer.
	if err := d.buffer.Append(ctx, msg.UserID, msg); err != nil {
		return err
	}
	if err := d.timer.Rearm(ctx, msg.UserID); err != nil {
		return err
	}

	d.scheduleCheck(msg.UserID)
	return nil
}

// scheduleCheck spawns one deferred check per rearm. Previously scheduled
// checks are not cancelled: a superseded check wakes up, finds the timer
// not yet due, and aborts. The freshest check does the flush.
func (d *Dispatcher) scheduleCheck(userID string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		select {
		case <-d.ctx.Done():
			return
		case <-time.After(d.opts.Window + d.opts.CheckEpsilon):
		}

		ctx, cancel := context.WithTimeout(d.ctx, d.opts.LockTTL)
		defer cancel()

		if err := d.tryFlush(ctx, userID); err != nil {
			slog.Error("flush check failed", "user_id", userID, "error", err)
		}
	}()
}

// tryFlush runs one flush check for a user. Every early return is a safe
// no-op: either the window was extended by a newer message, or another
// worker holds the lock, or the buffer was already drained.
func (d *Dispatcher) tryFlush(ctx context.Context, userID string) error {
	due, err := d.timer.IsDue(ctx, userID)
	if err != nil {
		return err
	}
	if !due {
		return nil
	}

	acquired, err := d.lock.TryAcquire(ctx, userID)
	if err != nil {
		return err
	}
	if !acquired {
		slog.Debug("flush lock contended, yielding", "user_id", userID)
		return nil
	}
	defer d.lock.Release(ctx, userID)

	// Double-check after taking the lock: a message may have rearmed the
	// timer between the first check and the acquire.
	due, err = d.timer.IsDue(ctx, userID)
	if err != nil {
		return err
	}
	if !due {
		return nil
	}

	msgs, err := d.buffer.Drain(ctx, userID)
	if err != nil {
		return err
	}

	// Clear only after a successful drain so a racing rearm is not lost,
	// and before replying so messages arriving mid-reply start a fresh
	// window instead of waiting on reply latency.
	if err := d.timer.Clear(ctx, userID); err != nil {
		return err
	}

	if len(msgs) == 0 {
		return nil
	}

	d.reply(ctx, userID, msgs)
	return nil
}

// reply builds the turn text, generates and sends the reply. Failures are
// logged and the turn is dropped; the lock release in tryFlush runs
// regardless.
func (d *Dispatcher) reply(ctx context.Context, userID string, msgs []bus.InboundMessage) {
	ctx, span := d.tracer.Start(ctx, "debounce.flush", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int("turn.messages", len(msgs)),
	))
	defer span.End()

	turnText := JoinTurn(msgs)
	if turnText == "" {
		// Every fragment was blank; nothing worth replying to.
		return
	}

	slog.Info("flushing turn", "user_id", userID, "messages", len(msgs), "chars", len(turnText))

	replyText, err := d.generator.Generate(ctx, turnText)
	if err != nil {
		span.RecordError(err)
		slog.Error("reply generation failed, turn dropped", "user_id", userID, "error", err)
		return
	}

	out := bus.OutboundMessage{UserID: userID, Text: replyText}
	if err := d.sender.Send(ctx, out); err != nil {
		span.RecordError(err)
		slog.Error("outbound send failed, turn dropped", "user_id", userID, "error", err)
		return
	}

	if d.recorder != nil {
		userName := ""
		for _, m := range msgs {
			if m.UserName != "" {
				userName = m.UserName
				break
			}
		}
		if err := d.recorder.RecordTurn(ctx, userID, userName, turnText, replyText); err != nil {
			// History write, not delivery: the reply already went out.
			slog.Warn("turn persistence failed", "user_id", userID, "error", err)
		}
	}
}

// Close stops accepting deferred work and waits for in-flight checks.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}
