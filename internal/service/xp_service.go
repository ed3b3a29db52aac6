package service

import "github.com/sedefy/sedetok-backend/internal/models"

// XPService computes the XP and Educoin rewards of finished matches and the
// user level a cumulative XP total corresponds to. Pure calculation, no state.
type XPService struct{}

func NewXPService() *XPService {
	return &XPService{}
}

// Reward is what one player earns from one finished match
type Reward struct {
	XP       int `json:"xp"`
	Educoins int `json:"educoins"`
}

// Base XP for playing a match to the end, win or lose
const participationXP = 50

// Win bonuses scale with the difficulty tier; unknown tiers pay the base rate
var winBonusXP = map[string]int{
	models.LevelBasico:     50,
	models.LevelIntermedio: 100,
	models.LevelAvanzado:   150,
}

var winEducoins = map[string]int{
	models.LevelBasico:     10,
	models.LevelIntermedio: 20,
	models.LevelAvanzado:   30,
}

// MatchReward returns the reward for a player of a finished match at the
// given level. A tie pays half the win bonus in XP and no Educoins.
func (s *XPService) MatchReward(level string, won, tie bool) Reward {
	bonus, ok := winBonusXP[level]
	if !ok {
		bonus = winBonusXP[models.LevelBasico]
	}

	reward := Reward{XP: participationXP}

	switch {
	case tie:
		reward.XP += bonus / 2
	case won:
		reward.XP += bonus
		coins, ok := winEducoins[level]
		if !ok {
			coins = winEducoins[models.LevelBasico]
		}
		reward.Educoins = coins
	}

	return reward
}

// LevelForXP maps cumulative XP to a user level. Level 1 starts at 0 XP and
// advancing from level n to n+1 costs 250*n XP, so level 2 needs 250, level 3
// needs 750, level 4 needs 1500, and so on.
func (s *XPService) LevelForXP(xp int) int {
	level := 1
	threshold := 0

	for {
		threshold += 250 * level
		if xp < threshold {
			return level
		}
		level++
	}
}

// XPToNextLevel returns how much XP is missing until the next level
func (s *XPService) XPToNextLevel(xp int) int {
	level := 1
	threshold := 0

	for {
		threshold += 250 * level
		if xp < threshold {
			return threshold - xp
		}
		level++
	}
}
