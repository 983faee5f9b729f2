package crisis

import (
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// PhaseSequence is the fixed forward order of the crisis lifecycle.
var PhaseSequence = []models.CrisisPhase{
	models.PhaseDormant,
	models.PhaseEmerging,
	models.PhaseEscalating,
	models.PhasePeak,
	models.PhaseDeclining,
	models.PhaseResolved,
}

// ValidPhase reports whether p is part of the defined sequence.
func ValidPhase(p models.CrisisPhase) bool {
	for _, phase := range PhaseSequence {
		if phase == p {
			return true
		}
	}
	return false
}

// NextPhase returns the phase after p in the sequence. RESOLVED is terminal
// and returns itself; unknown phases map to DORMANT.
func NextPhase(p models.CrisisPhase) models.CrisisPhase {
	for i, phase := range PhaseSequence {
		if phase != p {
			continue
		}
		if i == len(PhaseSequence)-1 {
			return phase
		}
		return PhaseSequence[i+1]
	}
	return models.PhaseDormant
}

func activePhase(p models.CrisisPhase) bool {
	return ValidPhase(p) && p != models.PhaseDormant && p != models.PhaseResolved
}

// Profile is the per-tick cascade intensity of one phase.
type Profile struct {
	CascadeProbability float64
	MaxReactions       int
	ViewBudget         int
}

// Intensity collapses a profile into one comparable scalar.
func (p Profile) Intensity() float64 {
	return p.CascadeProbability * float64(p.MaxReactions)
}

// The table keeps DORMANT and RESOLVED fully quiet, ESCALATING and PEAK
// equally loud, and DECLINING as a tail-off.
var profiles = map[models.CrisisPhase]Profile{
	models.PhaseDormant:    {},
	models.PhaseEmerging:   {CascadeProbability: 0.5, MaxReactions: 2, ViewBudget: 150},
	models.PhaseEscalating: {CascadeProbability: 0.9, MaxReactions: 5, ViewBudget: 600},
	models.PhasePeak:       {CascadeProbability: 0.9, MaxReactions: 5, ViewBudget: 600},
	models.PhaseDeclining:  {CascadeProbability: 0.35, MaxReactions: 2, ViewBudget: 100},
	models.PhaseResolved:   {},
}

// IntensityProfile returns the cascade intensity for a phase. Unknown phases
// read as dormant.
func IntensityProfile(p models.CrisisPhase) Profile {
	return profiles[p]
}
