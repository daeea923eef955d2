// Package schedule decides whether a message is due for delivery at a given
// instant. It is pure: no clocks, no stores, no side effects.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/hsinyuc/linecast/internal/domain/message"
)

// DefaultZone is the canonical zone every comparison runs in. All anchors and
// wall-clock "now" values are converted into it before any calendar math, so
// day/week/month boundaries are unambiguous.
const DefaultZone = "Asia/Taipei"

// ErrMissingAnchor marks a message that can never fire because it has no
// scheduled time. Callers log and count it; it must not stop the tick.
var ErrMissingAnchor = errors.New("schedule: message has no scheduled time")

type Evaluator struct {
	loc *time.Location
}

func NewEvaluator(loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{loc: loc}
}

// Due reports whether m should fire at now.
//
// Single messages fire once their instant has passed, with no upper bound: a
// message the loop slept through still fires on the next tick. Periodic
// messages fire when the anchor's time-of-day has been reached, the period's
// calendar condition matches, and the current period instance has not already
// been satisfied by last_sent.
func (e *Evaluator) Due(m *message.Message, now time.Time) (bool, error) {
	now = now.In(e.loc)
	switch m.Kind {
	case message.KindSingle:
		if m.Status != message.StatusScheduled {
			return false, nil
		}
		if m.ScheduledAt == nil {
			return false, ErrMissingAnchor
		}
		return !now.Before(m.ScheduledAt.In(e.loc)), nil
	case message.KindPeriodic:
		return e.duePeriodic(m, now)
	default:
		return false, fmt.Errorf("schedule: unknown kind %q", m.Kind)
	}
}

func (e *Evaluator) duePeriodic(m *message.Message, now time.Time) (bool, error) {
	if !m.Active {
		return false, nil
	}
	// Partial stays eligible: last_sent was not advanced, so the next tick
	// retries the same period instance.
	if m.Status != message.StatusScheduled && m.Status != message.StatusPartial {
		return false, nil
	}
	if m.ScheduledAt == nil {
		return false, ErrMissingAnchor
	}
	if !m.Period.Valid() {
		return false, fmt.Errorf("schedule: unknown period %q", m.Period)
	}

	anchor := m.ScheduledAt.In(e.loc)

	// Threshold crossing, not exact match: tolerant of tick granularity.
	if minuteOfDay(now) < minuteOfDay(anchor) {
		return false, nil
	}

	switch m.Period {
	case message.PeriodWeekly:
		if now.Weekday() != anchor.Weekday() {
			return false, nil
		}
	case message.PeriodMonthly:
		if now.Day() != anchor.Day() {
			return false, nil
		}
	case message.PeriodYearly:
		if now.Month() != anchor.Month() || now.Day() != anchor.Day() {
			return false, nil
		}
	}

	last := anchor
	if m.LastSent != nil {
		last = m.LastSent.In(e.loc)
	}
	if samePeriod(last, now, m.Period) {
		return false, nil
	}
	return true, nil
}

func minuteOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }

// samePeriod reports whether a and b fall in the same period instance:
// same calendar day, same ISO week, same month, or same year.
func samePeriod(a, b time.Time, p message.Period) bool {
	switch p {
	case message.PeriodDaily:
		return a.Year() == b.Year() && a.YearDay() == b.YearDay()
	case message.PeriodWeekly:
		ay, aw := a.ISOWeek()
		by, bw := b.ISOWeek()
		return ay == by && aw == bw
	case message.PeriodMonthly:
		return a.Year() == b.Year() && a.Month() == b.Month()
	case message.PeriodYearly:
		return a.Year() == b.Year()
	}
	return false
}
