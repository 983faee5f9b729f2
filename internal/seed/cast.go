package seed

import "github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"

// DemoActors returns the demo population: a spread of civilian personalities
// across both languages plus a handful of engagement-farming bots. Official
// accounts are not part of the cast; they ship with the schema's static
// seeds. Handles are stable so repeated seeding upserts the same rows.
func DemoActors() []models.Actor {
	return []models.Actor{
		{
			Handle:           "mama_ijeoma",
			DisplayName:      "Mama Ijeoma",
			Personality:      models.PersonalityAnxious,
			CredibilityScore: 0.30,
			AnxietyLevel:     0.90,
			Language:         models.LanguagePidgin,
		},
		{
			Handle:           "uncle_sege",
			DisplayName:      "Uncle Sege",
			Personality:      models.PersonalityAnxious,
			CredibilityScore: 0.35,
			AnxietyLevel:     0.85,
			Language:         models.LanguagePidgin,
		},
		{
			Handle:           "chioma_keeps_it",
			DisplayName:      "Chioma",
			Personality:      models.PersonalityAnxious,
			CredibilityScore: 0.40,
			AnxietyLevel:     0.80,
			Language:         models.LanguageEnglish,
		},
		{
			Handle:           "lagos_skeptic",
			DisplayName:      "Dayo A.",
			Personality:      models.PersonalitySkeptical,
			CredibilityScore: 0.85,
			AnxietyLevel:     0.15,
			Language:         models.LanguageEnglish,
		},
		{
			Handle:           "factcheck_9ja",
			DisplayName:      "9ja FactCheck",
			Personality:      models.PersonalitySkeptical,
			CredibilityScore: 0.90,
			AnxietyLevel:     0.10,
			Language:         models.LanguageEnglish,
		},
		{
			Handle:           "madam_calm",
			DisplayName:      "Madam Calm",
			Personality:      models.PersonalitySkeptical,
			CredibilityScore: 0.75,
			AnxietyLevel:     0.20,
			Language:         models.LanguagePidgin,
		},
		{
			Handle:           "aunty_risikat",
			DisplayName:      "Aunty Risikat",
			Personality:      models.PersonalityTrusting,
			CredibilityScore: 0.45,
			AnxietyLevel:     0.55,
			Language:         models.LanguagePidgin,
		},
		{
			Handle:           "emmanuel_ogb",
			DisplayName:      "Emmanuel O.",
			Personality:      models.PersonalityTrusting,
			CredibilityScore: 0.50,
			AnxietyLevel:     0.50,
			Language:         models.LanguageEnglish,
		},
		{
			Handle:           "bisi_of_lagos",
			DisplayName:      "Bisi",
			Personality:      models.PersonalityTrusting,
			CredibilityScore: 0.40,
			AnxietyLevel:     0.60,
			Language:         models.LanguageEnglish,
		},
		{
			Handle:           "tade_fintech",
			DisplayName:      "Tade on Fintech",
			Personality:      models.PersonalityAnalytical,
			CredibilityScore: 0.90,
			AnxietyLevel:     0.10,
			Language:         models.LanguageEnglish,
		},
		{
			Handle:           "kemi_econ",
			DisplayName:      "Kemi A., Economist",
			Personality:      models.PersonalityAnalytical,
			CredibilityScore: 0.85,
			AnxietyLevel:     0.15,
			Language:         models.LanguageEnglish,
		},
		{
			Handle:           "deji_charts",
			DisplayName:      "Deji Does Charts",
			Personality:      models.PersonalityAnalytical,
			CredibilityScore: 0.80,
			AnxietyLevel:     0.20,
			Language:         models.LanguageEnglish,
		},
		{
			Handle:           "wahala_zone",
			DisplayName:      "Wahala Zone",
			Personality:      models.PersonalityImpulsive,
			CredibilityScore: 0.25,
			AnxietyLevel:     0.75,
			Language:         models.LanguagePidgin,
		},
		{
			Handle:           "sharp_sharp_lekki",
			DisplayName:      "Sharp Guy Lekki",
			Personality:      models.PersonalityImpulsive,
			CredibilityScore: 0.30,
			AnxietyLevel:     0.70,
			Language:         models.LanguageEnglish,
		},
		{
			Handle:           "gist_lord_ng",
			DisplayName:      "Gist Lord NG",
			Personality:      models.PersonalityImpulsive,
			IsBot:            true,
			CredibilityScore: 0.10,
			AnxietyLevel:     0.85,
			Language:         models.LanguageEnglish,
		},
		{
			Handle:           "hot_amebo_247",
			DisplayName:      "Hot Amebo 24/7",
			Personality:      models.PersonalityImpulsive,
			IsBot:            true,
			CredibilityScore: 0.10,
			AnxietyLevel:     0.90,
			Language:         models.LanguagePidgin,
		},
		{
			Handle:           "naija_alerts_live",
			DisplayName:      "Naija Alerts Live",
			Personality:      models.PersonalityImpulsive,
			IsBot:            true,
			CredibilityScore: 0.15,
			AnxietyLevel:     0.80,
			Language:         models.LanguageEnglish,
		},
	}
}

// DefaultRules returns the stream rules seeded alongside the cast. Keywords
// are chosen to light up the filtered stream on the canned crisis content.
func DefaultRules() []models.StreamRule {
	return []models.StreamRule{
		{
			Name:     "Bank Run Watch",
			Keywords: []string{"withdraw", "don close", "shutting down"},
		},
		{
			Name:     "Fraud Watch",
			Keywords: []string{"skimming", "hackers", "breach"},
		},
		{
			Name:     "Official Updates",
			Keywords: []string{"official statement", "clarification"},
		},
	}
}
