package models

// Keyphrase is one annotated keyword row in the presentation view of a
// (category, location) scope.
type Keyphrase struct {
	Keyword         Keyword `json:"keyword"`
	SynonymOf       string  `json:"synonym_of,omitempty"` // Display text of the canonical keyword, empty unless Synonym
	RefreshEligible bool    `json:"refresh_eligible"`
	LatestVolume    int64   `json:"latest_volume"`
}

// MonthlyDemand is one month of the scope-wide weighted demand curve.
// Total is rounded to two decimal places, away from zero.
type MonthlyDemand struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"total"`
}

// KeyphraseReport is the full sorted, annotated view of one scope, consumed
// by reports and the console's keyword screens.
type KeyphraseReport struct {
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	LocationID   int64           `json:"location_id"`
	LocationName string          `json:"location_name"`
	Keyphrases   []Keyphrase     `json:"keyphrases"`
	Demand       []MonthlyDemand `json:"demand"` // Most recent 12 calendar months present in scope, ascending
}
