// Package notify surfaces messages to the user and optionally plays a
// notification sound.
package notify

import (
	"log/slog"
	"time"

	"github.com/hollis/daybook/internal/clock"
	"github.com/hollis/daybook/internal/models"
	"github.com/hollis/daybook/internal/sse"
)

// DismissAfter is how long a notification stays visible unless the user
// dismisses it first.
const DismissAfter = 5 * time.Second

// SoundPrefs reports whether the notification sound is enabled.
type SoundPrefs interface {
	SoundEnabled() bool
}

// Player plays the fixed notification sound.
type Player interface {
	Play() error
}

// Notifier broadcasts notification messages over SSE, schedules their
// auto-dismissal, and plays the sound when the preference is on. Sound
// failures are logged and swallowed; they never block the message.
type Notifier struct {
	broker *sse.Broker
	prefs  SoundPrefs
	clk    clock.Clock
	player Player
	log    *slog.Logger
}

// New creates a Notifier. player may be nil to disable sound playback
// entirely regardless of the preference.
func New(broker *sse.Broker, p SoundPrefs, clk clock.Clock, player Player, log *slog.Logger) *Notifier {
	return &Notifier{broker: broker, prefs: p, clk: clk, player: player, log: log}
}

// Notify displays message to the user. Fire-and-forget: there is no
// meaningful result for callers to act on.
func (n *Notifier) Notify(message string) {
	id := models.NewID(n.clk.Now())
	sound := n.prefs.SoundEnabled()

	n.broker.PublishNotification(id, message, sound)
	n.log.Info("notification", slog.String("message", message), slog.Bool("sound", sound))

	if sound && n.player != nil {
		if err := n.player.Play(); err != nil {
			n.log.Warn("notification sound failed", slog.String("error", err.Error()))
		}
	}

	n.clk.AfterFunc(DismissAfter, func() {
		n.broker.PublishDismissed(id)
	})
}
