package meals

// HealthInfo describes the person the advice is for. All fields optional.
type HealthInfo struct {
	Age           int      `json:"age,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	Weight        float64  `json:"weight,omitempty"`
	Height        float64  `json:"height,omitempty"`
	ActivityLevel string   `json:"activity_level,omitempty"`
	Goals         []string `json:"goals,omitempty"`
	Restrictions  []string `json:"restrictions,omitempty"`
	Allergies     []string `json:"allergies,omitempty"`
}

type Preferences struct {
	MealType       string `json:"meal_type,omitempty"`
	Cuisine        string `json:"cuisine,omitempty"`
	TimeConstraint int    `json:"time_constraint,omitempty"`
}

type SuggestionRequest struct {
	SessionID   string      `json:"session_id,omitempty"`
	UserID      uint64      `json:"user_id,omitempty"`
	HealthInfo  HealthInfo  `json:"health_info"`
	Preferences Preferences `json:"preferences"`
	FamilySize  int         `json:"family_size,omitempty"`
}

// MealPlan is the schema the model reply must decode against.
type MealPlan struct {
	Analysis string `json:"analysis"`
	Meals    []Meal `json:"meals"`
	Advice   string `json:"advice"`
}

type Meal struct {
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Benefits    string       `json:"benefits"`
	Preparation string       `json:"preparation"`
}

type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Product is a store item an ingredient resolved to.
type Product struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	ImageURL   string  `json:"image_url,omitempty"`
	ProductURL string  `json:"product_url,omitempty"`
}

type IngredientMatch struct {
	Ingredient Ingredient `json:"ingredient"`
	Product    Product    `json:"product"`
}

// ProcessedMeal is a meal with its ingredients split into store-available
// and unavailable.
type ProcessedMeal struct {
	Name        string `json:"name"`
	Benefits    string `json:"benefits"`
	Preparation string `json:"preparation"`
	Ingredients struct {
		Available   []IngredientMatch `json:"available"`
		Unavailable []Ingredient      `json:"unavailable"`
	} `json:"ingredients"`
}

// SuggestionResult is what the endpoint returns.
type SuggestionResult struct {
	SessionID   string          `json:"session_id"`
	Analysis    string          `json:"analysis"`
	Suggestions []ProcessedMeal `json:"suggestions"`
	Advice      string          `json:"advice"`
}
