package model

// ContentKind distinguishes artworks from exhibitions.
type ContentKind string

const (
	ContentKindArtwork    ContentKind = "artwork"
	ContentKindExhibition ContentKind = "exhibition"
)

// ContentMetadata describes a content item for personalization.
type ContentMetadata struct {
	Title              string   `json:"title"`
	CreatorID          string   `json:"creator_id,omitempty"`
	StyleTags          []string `json:"style_tags,omitempty"`
	AbstractionLevel   float64  `json:"abstraction_level"`
	EmotionalIntensity float64  `json:"emotional_intensity"`
}

// ContentVector is an immutable embedding for an artwork or exhibition.
type ContentVector struct {
	ItemID   string          `json:"item_id"`
	Kind     ContentKind     `json:"kind"`
	Vector   []float32       `json:"-"`
	Metadata ContentMetadata `json:"metadata"`
}

// PersonalizationHistory is what a user has seen and liked.
type PersonalizationHistory struct {
	ViewedItems   map[string]struct{}
	LikedCreators map[string]struct{}
	LikedStyles   map[string]struct{}
}

// NewPersonalizationHistory returns an empty history.
func NewPersonalizationHistory() *PersonalizationHistory {
	return &PersonalizationHistory{
		ViewedItems:   make(map[string]struct{}),
		LikedCreators: make(map[string]struct{}),
		LikedStyles:   make(map[string]struct{}),
	}
}

// RecommendationQuery is the query string for listing recommendations.
type RecommendationQuery struct {
	Kind  ContentKind `form:"kind" binding:"omitempty,oneof=artwork exhibition"`
	Limit int         `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Recommendation is one ranked content item.
type Recommendation struct {
	ItemID     string          `json:"item_id"`
	Kind       ContentKind     `json:"kind"`
	Metadata   ContentMetadata `json:"metadata"`
	Similarity float64         `json:"similarity"`
	MatchScore float64         `json:"match_score"`
	FinalScore float64         `json:"final_score"`
}

// RecommendationList is the response for a recommendation request.
type RecommendationList struct {
	UserID       string           `json:"user_id"`
	TypeCode     string           `json:"type_code"`
	Personalized bool             `json:"personalized"`
	Items        []Recommendation `json:"items"`
}
