package settings

import "time"

// Settings holds the LINE channel credentials the notifier pushes with.
// A single row; an empty ChannelToken means the channel is not connected yet
// and the dispatcher skips its ticks until one is saved.
type Settings struct {
	ChannelToken  string    `json:"channel_token"`
	ChannelSecret string    `json:"channel_secret"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *Settings) Configured() bool { return s != nil && s.ChannelToken != "" }
