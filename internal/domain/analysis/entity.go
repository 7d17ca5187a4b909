package analysis

import "time"

// ID identifier type
type ID string

// Fields is the literary breakdown produced by the external analyzer.
// Every field may be empty when the provider returns a partial reply.
type Fields struct {
	Summary            string            `json:"summary,omitempty"`
	Meaning            string            `json:"meaning,omitempty"`
	PoeticDevices      []string          `json:"poeticDevices,omitempty"`
	Themes             []string          `json:"themes,omitempty"`
	EmotionalTone      string            `json:"emotionalTone,omitempty"`
	HistoricalContext  string            `json:"historicalContext,omitempty"`
	WordAnalysis       map[string]string `json:"wordAnalysis,omitempty"`
	Interpretation     string            `json:"interpretation,omitempty"`
	EnglishTranslation string            `json:"englishTranslation,omitempty"`
}

// Analysis is a stored literary breakdown of one input text.
type Analysis struct {
	ID   ID     `json:"id"`
	Text string `json:"text"`
	Fields
	UserID     string    `json:"userId,omitempty"`
	IsFavorite bool      `json:"isFavorite"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Patch carries the fields of a partial update; nil means "leave as is".
type Patch struct {
	Text               *string            `json:"text"`
	Summary            *string            `json:"summary"`
	Meaning            *string            `json:"meaning"`
	PoeticDevices      *[]string          `json:"poeticDevices"`
	Themes             *[]string          `json:"themes"`
	EmotionalTone      *string            `json:"emotionalTone"`
	HistoricalContext  *string            `json:"historicalContext"`
	WordAnalysis       *map[string]string `json:"wordAnalysis"`
	Interpretation     *string            `json:"interpretation"`
	EnglishTranslation *string            `json:"englishTranslation"`
	IsFavorite         *bool              `json:"isFavorite"`
	Tags               *[]string          `json:"tags"`
}

// Apply merges p into a. The caller validates Text beforehand.
func (p Patch) Apply(a *Analysis) {
	if p.Text != nil {
		a.Text = *p.Text
	}
	if p.Summary != nil {
		a.Summary = *p.Summary
	}
	if p.Meaning != nil {
		a.Meaning = *p.Meaning
	}
	if p.PoeticDevices != nil {
		a.PoeticDevices = *p.PoeticDevices
	}
	if p.Themes != nil {
		a.Themes = *p.Themes
	}
	if p.EmotionalTone != nil {
		a.EmotionalTone = *p.EmotionalTone
	}
	if p.HistoricalContext != nil {
		a.HistoricalContext = *p.HistoricalContext
	}
	if p.WordAnalysis != nil {
		a.WordAnalysis = *p.WordAnalysis
	}
	if p.Interpretation != nil {
		a.Interpretation = *p.Interpretation
	}
	if p.EnglishTranslation != nil {
		a.EnglishTranslation = *p.EnglishTranslation
	}
	if p.IsFavorite != nil {
		a.IsFavorite = *p.IsFavorite
	}
	if p.Tags != nil {
		a.Tags = *p.Tags
	}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// ListFilter narrows List results. Zero value lists everything.
type ListFilter struct {
	UserID        string
	FavoritesOnly bool
	Limit         int
}
