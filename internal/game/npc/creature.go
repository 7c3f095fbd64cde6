package npc

import "sort"

// CreatureType selects the base stat row for an enemy.
type CreatureType string

// creatureRow holds per-type bonuses: extra health, base armor class and
// walking speed in feet.
type creatureRow struct {
	HP    int
	AC    int
	Speed float64
}

var defaultRow = creatureRow{HP: 5, AC: 10, Speed: 30}

var creatureTable = map[CreatureType]creatureRow{
	"aberration":    defaultRow,
	"beast":         {HP: 5, AC: 11, Speed: 40},
	"celestial":     defaultRow,
	"construct":     defaultRow,
	"dragon":        {HP: 20, AC: 16, Speed: 40},
	"elemental":     defaultRow,
	"fey":           defaultRow,
	"fiend":         defaultRow,
	"giant":         {HP: 18, AC: 12, Speed: 35},
	"humanoid":      {HP: 6, AC: 10, Speed: 30},
	"monstrosity":   {HP: 12, AC: 13, Speed: 35},
	"ooze":          defaultRow,
	"plant":         defaultRow,
	"undead":        {HP: 10, AC: 12, Speed: 25},
	"goblinoid":     defaultRow,
	"demon":         {HP: 12, AC: 14, Speed: 30},
	"devil":         {HP: 12, AC: 15, Speed: 30},
	"shapechanger":  defaultRow,
	"insect":        defaultRow,
	"mechanical":    defaultRow,
	"spirit":        defaultRow,
	"magical_beast": defaultRow,
	"unknown":       defaultRow,
}

// Known reports whether t is in the creature table. The empty type is
// treated as "unknown".
func (t CreatureType) Known() bool {
	if t == "" {
		return true
	}
	_, ok := creatureTable[t]
	return ok
}

func (t CreatureType) row() creatureRow {
	if r, ok := creatureTable[t]; ok {
		return r
	}
	return defaultRow
}

// CreatureTypes lists every known type in sorted order.
func CreatureTypes() []CreatureType {
	out := make([]CreatureType, 0, len(creatureTable))
	for t := range creatureTable {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
