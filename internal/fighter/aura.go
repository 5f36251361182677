package fighter

import "math"

// Aura percentage bounds.
const (
	MinAura = -100
	MaxAura = 100
)

// narrativeLevels pins a handful of names to fixed aura levels.
var narrativeLevels = map[string]int{
	"toru":   0,
	"toru1":  1,
	"toru2":  2,
	"toru3":  3,
	"toru4":  4,
	"toru5":  5,
	"toru6":  6,
	"toru7":  7,
	"toru8":  8,
	"toru9":  9,
	"toru10": 10,
	"toru11": 11,
}

// AuraPercentage derives the aura percentage for a display name.
// Names in the narrative table map level 0 to -100, level 11 to 100 and any
// other level to (level-1)*10+9. All other names hash into [0, 100].
func AuraPercentage(name string) int {
	if level, ok := narrativeLevels[name]; ok {
		return levelPercentage(level)
	}
	return int(Hash(name) % 101)
}

func levelPercentage(level int) int {
	switch level {
	case 0:
		return MinAura
	case 11:
		return MaxAura
	default:
		return (level-1)*10 + 9
	}
}

// AuraLevel buckets a percentage into levels 0 through 11.
func AuraLevel(percent int) int {
	switch {
	case percent <= 3:
		return 0
	case percent <= 9:
		return 1
	case percent == MaxAura:
		return 11
	}
	level := int(math.Ceil(float64(percent-9)/10)) + 1
	return min(level, 10)
}
