package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/hsinyuc/linecast/internal/content"
	"github.com/hsinyuc/linecast/internal/domain/message"
	"github.com/hsinyuc/linecast/internal/schedule"
	"github.com/hsinyuc/linecast/internal/services/scheduler/repo"
)

// Stats summarizes one tick.
type Stats struct {
	Evaluated int
	Due       int
	Delivered int
	Partial   int
	Failed    int
	Skipped   int // malformed schedule data, excluded from evaluation
}

type Usecase struct {
	Messages repo.Messages
	Groups   repo.Groups
	Creds    repo.Credentials
	Notifier message.Notifier
	Events   repo.Events // optional
	Eval     *schedule.Evaluator
	Clock    message.Clock
	Log      *zap.Logger
}

func NewUC(
	messages repo.Messages,
	groups repo.Groups,
	creds repo.Credentials,
	notifier message.Notifier,
	events repo.Events,
	eval *schedule.Evaluator,
	clock message.Clock,
	log *zap.Logger,
) *Usecase {
	return &Usecase{
		Messages: messages,
		Groups:   groups,
		Creds:    creds,
		Notifier: notifier,
		Events:   events,
		Eval:     eval,
		Clock:    clock,
		Log:      log,
	}
}

// Tick loads every pending message, fires the due ones and reconciles their
// persisted state. Failures stay contained: a broken message degrades its own
// status, never the tick.
func (u *Usecase) Tick(ctx context.Context) (Stats, error) {
	tr := otel.Tracer("scheduler.uc")
	ctx, span := tr.Start(ctx, "scheduler.tick")
	defer span.End()

	var st Stats

	token, err := u.Creds.Token(ctx)
	if err != nil {
		span.RecordError(err)
		return st, fmt.Errorf("load credentials: %w", err)
	}
	if token == "" {
		// Configuration error: nothing is persisted, the next tick retries
		// once a token has been saved.
		u.Log.Warn("line channel token not configured, skipping tick")
		return st, nil
	}

	pending, err := u.Messages.ListPending(ctx)
	if err != nil {
		span.RecordError(err)
		return st, fmt.Errorf("list pending: %w", err)
	}

	now := u.Clock.Now()
	for _, m := range pending {
		st.Evaluated++

		due, err := u.Eval.Due(m, now)
		if err != nil {
			st.Skipped++
			u.Log.Warn("message excluded from evaluation",
				zap.String("message_id", m.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !due {
			continue
		}
		st.Due++
		u.fire(ctx, m, now, &st)
	}

	span.SetAttributes(
		attribute.Int("tick.evaluated", st.Evaluated),
		attribute.Int("tick.due", st.Due),
		attribute.Int("tick.delivered", st.Delivered),
		attribute.Int("tick.partial", st.Partial),
		attribute.Int("tick.failed", st.Failed),
	)
	return st, nil
}

// fire resolves targets, fans out one push per target, and applies the
// aggregate outcome:
//
//	all targets succeed, single   -> record deleted
//	all targets succeed, periodic -> last_sent advanced, status scheduled
//	some target fails             -> status partial, last_sent untouched
//	zero targets resolve          -> status failed, no delivery attempted
func (u *Usecase) fire(ctx context.Context, m *message.Message, now time.Time, st *Stats) {
	log := u.Log.With(zap.String("message_id", m.ID.String()), zap.String("title", m.Title))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing message", zap.Any("panic", r))
		}
	}()

	var (
		channels   []string
		unresolved int
	)
	for _, gid := range m.GroupIDs {
		g, err := u.Groups.GetByID(ctx, gid)
		if err != nil {
			unresolved++
			log.Warn("target group not resolvable", zap.String("group_id", gid.String()), zap.Error(err))
			continue
		}
		channels = append(channels, g.ChannelID)
	}

	if len(channels) == 0 {
		if err := u.Messages.SetStatus(ctx, m.ID, message.StatusFailed); err != nil {
			log.Error("persist failed status", zap.Error(err))
			return
		}
		st.Failed++
		u.report(ctx, m, message.StatusFailed, 0, unresolved, now)
		log.Warn("no deliverable targets", zap.Int("unresolved", unresolved))
		return
	}

	body := content.Format(m.Body, m.Currency, m.Amount)

	var (
		mu        sync.Mutex
		delivered int
		merr      *multierror.Error
		wg        sync.WaitGroup
	)
	for _, ch := range channels {
		wg.Add(1)
		go func(ch string) {
			defer wg.Done()
			if err := u.Notifier.Push(ctx, ch, body); err != nil {
				mu.Lock()
				merr = multierror.Append(merr, fmt.Errorf("push to %s: %w", ch, err))
				mu.Unlock()
				return
			}
			mu.Lock()
			delivered++
			mu.Unlock()
		}(ch)
	}
	wg.Wait()

	failed := unresolved + (len(channels) - delivered)
	if failed > 0 {
		if err := u.Messages.SetStatus(ctx, m.ID, message.StatusPartial); err != nil {
			log.Error("persist partial status", zap.Error(err))
			return
		}
		st.Partial++
		u.report(ctx, m, message.StatusPartial, delivered, failed, now)
		log.Warn("partial delivery",
			zap.Int("delivered", delivered),
			zap.Int("failed", failed),
			zap.Error(merr.ErrorOrNil()),
		)
		return
	}

	switch m.Kind {
	case message.KindSingle:
		if err := u.Messages.Delete(ctx, m.ID); err != nil {
			log.Error("delete delivered message", zap.Error(err))
			return
		}
	default:
		if err := u.Messages.MarkDelivered(ctx, m.ID, now); err != nil {
			log.Error("advance last_sent", zap.Error(err))
			return
		}
	}
	st.Delivered++
	u.report(ctx, m, message.StatusSent, delivered, 0, now)
	log.Info("message delivered", zap.Int("targets", delivered))
}

func (u *Usecase) report(ctx context.Context, m *message.Message, outcome message.Status, delivered, failed int, at time.Time) {
	if u.Events == nil {
		return
	}
	r := repo.DeliveryReport{
		MessageID: m.ID.String(),
		Title:     m.Title,
		Status:    string(outcome),
		Delivered: delivered,
		Failed:    failed,
		At:        at,
	}
	if err := u.Events.PublishReport(ctx, r); err != nil {
		u.Log.Warn("publish delivery report", zap.Error(err))
	}
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
