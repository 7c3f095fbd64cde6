package battle

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cory-johannsen/tactics/internal/game/combat"
)

// ErrNoPrompt is returned by RespondToPrompt when nothing is waiting.
var ErrNoPrompt = errors.New("no prompt pending")

// Prompt asks the player to pick one of Allies for Caster's ability.
type Prompt struct {
	Caster *combat.Combatant
	Allies []*combat.Combatant
}

// ChannelPrompter is a combat.Prompter that publishes each request on a
// channel and blocks until RespondToPrompt delivers the answer.
type ChannelPrompter struct {
	prompts   chan Prompt
	responses chan int
	pending   atomic.Bool
}

// NewChannelPrompter creates a ChannelPrompter. The prompt channel holds one
// pending request.
func NewChannelPrompter() *ChannelPrompter {
	return &ChannelPrompter{
		prompts:   make(chan Prompt, 1),
		responses: make(chan int, 1),
	}
}

// Prompts delivers pending requests to the UI.
func (p *ChannelPrompter) Prompts() <-chan Prompt { return p.prompts }

// ChooseAlly implements combat.Prompter.
//
// Postcondition: Returns the selection, or ctx.Err() if ctx finishes first.
func (p *ChannelPrompter) ChooseAlly(ctx context.Context, caster *combat.Combatant, allies []*combat.Combatant) (int, error) {
	p.drain()
	p.pending.Store(true)
	defer p.pending.Store(false)
	select {
	case p.prompts <- Prompt{Caster: caster, Allies: allies}:
	case <-ctx.Done():
		return -1, ctx.Err()
	}
	select {
	case sel := <-p.responses:
		return sel, nil
	case <-ctx.Done():
		p.drain()
		return -1, ctx.Err()
	}
}

// drain drops an unread prompt and an unclaimed answer left by a cancelled
// request, so neither is paired with the next one.
func (p *ChannelPrompter) drain() {
	select {
	case <-p.prompts:
	default:
	}
	select {
	case <-p.responses:
	default:
	}
}

// Pending reports whether a prompt is awaiting an answer.
func (p *ChannelPrompter) Pending() bool { return p.pending.Load() }

// RespondToPrompt answers the pending prompt. It does not block.
func (p *ChannelPrompter) RespondToPrompt(selection int) error {
	if selection < -1 {
		return fmt.Errorf("battle: invalid selection %d", selection)
	}
	if !p.pending.Load() {
		return ErrNoPrompt
	}
	select {
	case p.responses <- selection:
		return nil
	default:
		return fmt.Errorf("battle: prompt already answered")
	}
}
