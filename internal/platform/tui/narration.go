package tui

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/deathbattle/internal/combat"
	"github.com/vovakirdan/deathbattle/internal/multiplayer"
	"github.com/vovakirdan/deathbattle/internal/roulette"
)

// narrations maps engine narration keys to text variants. Placeholders:
// {attacker} {defender} {healed} {self} {hits}. Variants are picked by turn
// number so a replay renders identically.
var narrations = map[string][]string{
	"attack.hit": {
		"{attacker} strikes {defender} with fury",
		"{attacker} lands a heavy blow on {defender}",
		"{attacker} presses the attack against {defender}",
		"{attacker} catches {defender} off guard",
		"{attacker} hammers {defender} relentlessly",
	},
	"attack.crit": {
		"{attacker} lands a CRITICAL strike on {defender}!",
		"{attacker} finds the gap in {defender}'s guard for a CRITICAL hit!",
		"{attacker} unleashes a DEVASTATING blow!",
	},
	"attack.dodge": {
		"{defender} slips past {attacker}'s attack",
		"{defender} reads {attacker} perfectly and steps aside",
		"{defender} vanishes before {attacker}'s strike lands",
	},
	"attack.block": {
		"{defender} raises their guard against {attacker}",
		"{defender} deflects {attacker}'s strike",
		"{defender} absorbs the impact without flinching",
	},

	"ability.alter_ego_burst":             {"{attacker} channels their alter ego into a devastating burst!"},
	"ability.ego_shield":                  {"{attacker} raises an ego shield (+10 DEF)"},
	"ability.shadow_clone":                {"{attacker} splits into shadow clones and strikes from every side (+1 ATK)"},
	"ability.healing_light":               {"{attacker} bathes in healing light, restoring {healed} HP"},
	"ability.berserker_rage":              {"{attacker} flies into a berserker rage (+6 ATK, -2 DEF)"},
	"ability.time_slow":                   {"{attacker} bends time around themself (+6 SPD)"},
	"ability.soul_strike":                 {"{attacker} strikes at {defender}'s soul, stealing their speed (+1 SPD, -1 enemy SPD)"},
	"ability.phoenix_rising.heal":         {"{attacker} rises like a phoenix, healing {healed} HP"},
	"ability.phoenix_rising.strike":       {"{attacker} strikes with phoenix fire (+1 DEF)"},
	"ability.relic_of_exo":                {"{attacker} unleashes the Relic of Exo, piercing {defender}'s defenses"},
	"ability.egos_blessing":               {"{attacker} receives Ego's blessing (+2 to all stats)"},
	"ability.cleansing":                   {"{attacker} cleanses body and soul, healing {healed} HP (+1 SPD)"},
	"ability.raise_the_dead.revive":       {"{attacker} cheats death, returning with {healed} HP"},
	"ability.raise_the_dead.strike":       {"{attacker} summons the fallen to strike {defender}"},
	"ability.warriors_call":               {"{attacker} lets out a warrior's cry (+4 ATK)"},
	"ability.drop_the_beat":               {"{attacker} drops the beat, throwing {defender} off rhythm (-1 to all enemy stats)"},
	"ability.call_to_arms":                {"{attacker} sounds the call to arms; a platoon opens fire while medics restore {healed} HP"},
	"ability.airstrike":                   {"{attacker} calls in an airstrike: {hits} bomber(s) rain destruction"},
	"ability.divine_intervention.fortify": {"{attacker} receives divine intervention, healing {healed} HP and fortifying their body (+6 DEF)"},
	"ability.divine_intervention.mend":    {"{attacker} receives divine intervention, healing {healed} HP and gaining resilience (+3 DEF)"},
	"ability.great_will":                  {"{attacker} turns their wounds into raw power"},
	"ability.toxic_fumes":                 {"{attacker} breathes in toxic fumes (+3 DEF, +3 SPD)"},
	"ability.freikugel":                   {"{attacker} fires the Freikugel, sacrificing {self} HP"},
	"ability.freikugel.misfire":           {"{attacker} lacks the life force for the Freikugel and settles for a weaker shot"},
	"ability.bloodlust":                   {"{attacker} drains {defender}'s blood, taking {healed} HP"},
	"ability.blade_of_the_old_world":      {"{attacker} swings the Blade of the Old World, leaving their guard open (-1 DEF)"},
	"ability.spectral_exonorator":         {"{attacker} summons the Spectral Exonorator to shred {defender}'s armor (-2 enemy DEF)"},
	"ability.axis_cleave":                 {"{attacker} cleaves along {defender}'s axis"},
	"ability.kim_ji_hoon_combo":           {"{attacker} chains a {hits}-hit combo"},

	"roulette.shoot.click":      {"{attacker} aims at {defender} and pulls the trigger... click."},
	"roulette.shoot.death":      {"{attacker} aims at {defender} and pulls the trigger... BANG! {defender} is out."},
	"roulette.shoot_self.click": {"{attacker} puts the gun to their own head... click. Bonus turn!"},
	"roulette.shoot_self.death": {"{attacker} puts the gun to their own head... BANG!"},
	"roulette.pass":             {"{attacker} passes the gun to {defender}."},
	"roulette.timeout":          {"{attacker} took too long. The gun passes to {defender}."},
}

var deaths = []string{
	"{fighter} collapses, defeated",
	"{fighter} falls with honor",
	"{fighter} succumbs to their wounds",
	"{fighter} is vanquished",
}

func narrate(key string, variant int, r *strings.Replacer) string {
	texts, ok := narrations[key]
	if !ok || len(texts) == 0 {
		return key
	}
	if variant < 0 {
		variant = -variant
	}
	return r.Replace(texts[variant%len(texts)])
}

// NarrateTurn renders one duel turn as a line of text.
func NarrateTurn(ev combat.BattleEvent, attacker, defender string) string {
	r := strings.NewReplacer(
		"{attacker}", attacker,
		"{defender}", defender,
		"{healed}", fmt.Sprint(ev.Healed),
		"{self}", fmt.Sprint(ev.SelfDamage),
		"{hits}", fmt.Sprint(ev.Hits),
	)
	line := narrate(ev.Narration, ev.Turn, r)
	if ev.Action == combat.ActionAbility {
		line = fmt.Sprintf("[%s] %s", ev.Ability, line)
	}
	if ev.Damage > 0 {
		line += fmt.Sprintf(" (-%d HP)", ev.Damage)
	}
	return line
}

// NarrateDeath renders the loser's final line.
func NarrateDeath(name string, turns int) string {
	return strings.ReplaceAll(deaths[turns%len(deaths)], "{fighter}", name)
}

// NarrateRound renders one roulette move or timeout.
func NarrateRound(ev roulette.RoundEvent, player, opponent string) string {
	r := strings.NewReplacer("{attacker}", player, "{defender}", opponent)
	line := narrate(ev.Narration, ev.Round, r)
	if ev.Action != "" && !ev.TimedOut {
		line = fmt.Sprintf("Chamber %d/%d: %s", ev.Chamber, roulette.Chambers, line)
	}
	return line
}

// NarrateEnd describes a session that ended without a winner.
func NarrateEnd(evt multiplayer.SessionEndedEvent) string {
	s := evt.Status.String()
	switch {
	case evt.Err != nil:
		s += ": " + evt.Err.Error()
	case evt.Status == multiplayer.StatusBusy:
		s += ": " + evt.Reason.String()
	}
	return s
}
