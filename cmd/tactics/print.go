package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/combat"
)

// shortID trims generated UUIDs to their first block.
func shortID(id string) string {
	if len(id) == 36 && strings.Count(id, "-") == 4 {
		return id[:8]
	}
	return id
}

// eventLine renders e as one transcript line.
func eventLine(e combat.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "r%02d %-18s", e.Round, e.Type)
	if e.ActorID != "" {
		b.WriteString(" " + shortID(e.ActorID))
	}
	if e.Ability != "" {
		b.WriteString(" [" + e.Ability + "]")
	}
	if e.TargetID != "" {
		b.WriteString(" -> " + shortID(e.TargetID))
	}
	switch {
	case e.Immune:
		b.WriteString(" immune")
	case e.Miss:
		b.WriteString(" miss")
	case e.Amount != 0:
		fmt.Fprintf(&b, " %d", e.Amount)
	}
	if e.Crit {
		b.WriteString(" crit")
	}
	if e.Reason != "" {
		b.WriteString(" (" + e.Reason + ")")
	}
	if e.Detail != "" {
		b.WriteString(" " + e.Detail)
	}
	return b.String()
}

// transcript is a combat.Sink that prints every event to w.
func transcript(w io.Writer) combat.Sink {
	return combat.SinkFunc(func(e combat.Event) {
		fmt.Fprintln(w, eventLine(e))
	})
}

func printSummary(w io.Writer, s battle.Summary) {
	fmt.Fprintf(w, "%s  %-8s  party=%s  rounds=%d  events=%d  seed=%s  %s\n",
		s.ID, s.Outcome, s.Party, s.Rounds, s.Events, s.ReplayKey, s.Duration().Round(time.Millisecond))
}
