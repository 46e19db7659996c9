package discord

import (
	"context"

	"github.com/tnicklin/nephalem/tracker"
)

// Discord is the chat surface of the bot. It answers profile commands in the listen
// channel and posts tracker events to the report channel.
type Discord interface {
	Start(ctx context.Context) error
	Stop() error
	// WriteMessage sends msg to a channel, split into pieces Discord accepts.
	WriteMessage(channelID, msg string) error
	// NotifyEvents matches tracker.NotifyFunc.
	NotifyEvents(ctx context.Context, events []tracker.Event)
}
