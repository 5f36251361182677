package multiplayer

import (
	"context"

	"github.com/vovakirdan/deathbattle/internal/roulette"
)

// Bot plays an elimination game for one participant. It watches the session
// for that participant's turns and answers them with its strategy. Bot also
// accepts any invitation addressed to it.
type Bot struct {
	ctx      context.Context
	player   ParticipantID
	strategy roulette.Strategy
	moves    chan<- Move
}

// NewBot creates a bot that submits player's moves to moves until ctx ends.
func NewBot(ctx context.Context, player ParticipantID, strategy roulette.Strategy, moves chan<- Move) *Bot {
	return &Bot{ctx: ctx, player: player, strategy: strategy, moves: moves}
}

// Send implements EventSink. It never blocks the session.
func (b *Bot) Send(evt SessionEvent) {
	switch evt := evt.(type) {
	case ConsentRequestedEvent:
		if evt.Inviter == b.player || evt.Target == b.player {
			//nolint:errcheck // A late or duplicate answer is rejected, which is fine
			evt.Consent.Respond(b.player, Accept)
		}

	case YourMoveEvent:
		if evt.State.Player != string(b.player) {
			return
		}
		mv := Move{Player: b.player, Action: b.strategy.Choose(evt.State)}
		go func() {
			select {
			case b.moves <- mv:
			case <-b.ctx.Done():
			}
		}()
	}
}

var _ EventSink = (*Bot)(nil)
