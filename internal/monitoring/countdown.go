package monitoring

import (
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog/log"
)

// CountdownSource is the read-only scheduler view the broadcaster observes.
type CountdownSource interface {
	TimeUntilNextBackup() (time.Duration, bool)
	FormatTimeUntilNextBackup() string
}

// Notifier pushes messages to connected UI clients.
type Notifier interface {
	Notify(action string, payload any)
}

// CountdownBroadcaster publishes the remaining time until the next backup
// once per second. It is a pure observer on its own clock: it reads the
// scheduler's due time and nothing else, so the UI refresh rate can never
// influence the backup cadence or the in-flight guard.
type CountdownBroadcaster struct {
	clk      clock.Clock
	source   CountdownSource
	notifier Notifier
	done     chan bool
}

// NewCountdownBroadcaster creates a broadcaster over the given source.
func NewCountdownBroadcaster(clk clock.Clock, source CountdownSource, notifier Notifier) *CountdownBroadcaster {
	return &CountdownBroadcaster{
		clk:      clk,
		source:   source,
		notifier: notifier,
		done:     make(chan bool),
	}
}

// Run starts the display tick loop.
func (b *CountdownBroadcaster) Run() {
	log.Info().Msg("Starting backup countdown broadcaster...")
	for {
		select {
		case <-b.done:
			log.Info().Msg("Stopping backup countdown broadcaster.")
			return
		case <-b.clk.After(1 * time.Second):
			b.publish()
		}
	}
}

// Stop halts the display tick.
func (b *CountdownBroadcaster) Stop() {
	b.done <- true
}

func (b *CountdownBroadcaster) publish() {
	remaining, scheduled := b.source.TimeUntilNextBackup()
	b.notifier.Notify("backup.countdown", map[string]any{
		"scheduled":        scheduled,
		"remainingSeconds": int(remaining / time.Second),
		"display":          b.source.FormatTimeUntilNextBackup(),
	})
}
