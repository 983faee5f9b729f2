package models

import (
	"time"
)

// CrisisPhase is the lifecycle phase of a simulated crisis. Phases only move
// forward through the fixed sequence; reset returns the engine to DORMANT.
type CrisisPhase string

const (
	PhaseDormant    CrisisPhase = "DORMANT"
	PhaseEmerging   CrisisPhase = "EMERGING"
	PhaseEscalating CrisisPhase = "ESCALATING"
	PhasePeak       CrisisPhase = "PEAK"
	PhaseDeclining  CrisisPhase = "DECLINING"
	PhaseResolved   CrisisPhase = "RESOLVED"
)

// Severity drives the tone and metric tables of crisis-origin content.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Valid reports whether s is one of the defined severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Crisis is the subject of a simulation run: one false claim spreading
// through the platform. At most one crisis is active (non-DORMANT,
// non-RESOLVED) at a time.
type Crisis struct {
	ID               string      `json:"id"`
	Type             string      `json:"type"`  // domain of the false claim, e.g. "bank_insolvency"
	Topic            string      `json:"topic"` // display subject, e.g. "Zenith Bank"
	Phase            CrisisPhase `json:"phase"`
	Severity         Severity    `json:"severity"`
	TargetViralRate  float64     `json:"target_viral_rate"`
	BotAmplification float64     `json:"bot_amplification"` // selection weight multiplier for bot actors
	OrganicActivity  float64     `json:"organic_activity"`  // probability of organic noise per background tick
	SpeedFactor      float64     `json:"speed_factor"`      // simulation seconds per wall-clock second
	Language         string      `json:"language"`
	StartedAt        time.Time   `json:"started_at"`
	ResolvedAt       *time.Time  `json:"resolved_at,omitempty"`
}

// Active reports whether the crisis is in a phase that produces content.
func (c *Crisis) Active() bool {
	if c == nil {
		return false
	}
	return c.Phase != PhaseDormant && c.Phase != PhaseResolved
}

// Well-known crisis types. The type is free-form; these are the scenarios the
// demo data and canned content know about.
const (
	CrisisBankInsolvency = "bank_insolvency"
	CrisisATMSkimming    = "atm_skimming"
	CrisisAppOutage      = "app_outage"
	CrisisDataBreach     = "data_breach"
)
