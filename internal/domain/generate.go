package domain

import "encoding/json"

// CocktailRequest asks for a structured recipe built around a bottle photo.
type CocktailRequest struct {
	Description string `json:"description"`
	Image       []byte `json:"-"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// HasImage reports whether any image representation is present.
func (r CocktailRequest) HasImage() bool {
	return len(r.Image) > 0 || r.ImageBase64 != ""
}

// Cocktail is the recipe document returned by the backend. Its schema is
// owned by the prompt, so it is passed through as validated raw JSON.
type Cocktail = json.RawMessage

// DrinkQuery describes the context for a drink recommendation.
type DrinkQuery struct {
	Mood     string `json:"mood"`
	Weather  string `json:"weather"`
	Location string `json:"location"`
}

// Drink is a recommended drink.
type Drink struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	AlcoholBase    string `json:"alcohol_base"`
	Description    string `json:"description"`
	AlcoholContent string `json:"alcohol_content"`
	Image          string `json:"image,omitempty"`
}

// FoodPairing is a dish suggested alongside a drink.
type FoodPairing struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

// DrinkRecommendation is a drink plus food pairings.
type DrinkRecommendation struct {
	Drink        Drink         `json:"drink"`
	FoodPairings []FoodPairing `json:"food_pairings"`
}

// Brand is an alcohol brand available in a location.
type Brand struct {
	BrandName   string `json:"brand_name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}
