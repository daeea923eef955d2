package message

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates one-shot messages from recurring ones.
type Kind string

const (
	KindSingle   Kind = "single"
	KindPeriodic Kind = "periodic"
)

func (k Kind) Valid() bool { return k == KindSingle || k == KindPeriodic }

// Period is the recurrence granularity of a periodic message.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Status is the delivery lifecycle state. Scheduled is both the initial state
// and the resting state periodic messages return to after a successful firing.
// Partial and Failed are terminal for single messages; a periodic message in
// Partial is retried on later ticks because its last_sent was not advanced.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusSent      Status = "sent"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Currency codes the admin UI offers for the optional amount annotation.
type Currency string

const (
	CurrencyTWD Currency = "TWD"
	CurrencyUSD Currency = "USD"
	CurrencyAUD Currency = "AUD"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyTWD, CurrencyUSD, CurrencyAUD:
		return true
	}
	return false
}

// Message is the unit of schedulable work. ScheduledAt is the firing instant
// for single messages and the recurrence anchor (time-of-day plus, depending
// on Period, day-of-week/month/year) for periodic ones.
type Message struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	GroupIDs    []uuid.UUID `json:"group_ids"`
	Currency    Currency    `json:"currency,omitempty"`
	Amount      string      `json:"amount,omitempty"`
	Kind        Kind        `json:"kind"`
	Period      Period      `json:"period,omitempty"`
	Active      bool        `json:"active"`
	LastSent    *time.Time  `json:"last_sent"`
	ScheduledAt *time.Time  `json:"scheduled_at"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
