package combat

import "github.com/vovakirdan/deathbattle/internal/fighter"

// Action is what happened on a turn.
type Action string

const (
	ActionAttack  Action = "attack"
	ActionDodge   Action = "dodge"
	ActionBlock   Action = "block"
	ActionAbility Action = "ability"
)

// BattleEvent is the immutable record of one resolved turn.
type BattleEvent struct {
	Turn       int
	AttackerID string
	DefenderID string
	Action     Action
	Ability    fighter.Ability

	// Damage is what the attack dealt after mitigation, before the target's
	// hp was clamped at zero.
	Damage    int
	Crit      bool
	Narration string

	// Healed and SelfDamage are attacker-side hp changes from an ability.
	Healed     int
	SelfDamage int
	// Hits is the strike count for multi-hit abilities.
	Hits int

	AttackerHP int
	DefenderHP int

	// Fighter1HP and Fighter2HP follow the order the duel was created with,
	// independent of who moved first.
	Fighter1HP int
	Fighter2HP int
}
