package coach

import "github.com/DandaAkhilReddy/ReddyFitV2/llm"

// ModelConfig names the model variants the facade selects between: the
// full model for critical-path calls, the flash model for low-latency
// best-effort ones.
type ModelConfig struct {
	Full  string
	Flash string
}

// DefaultModels returns the production model pair.
func DefaultModels() ModelConfig {
	return ModelConfig{
		Full:  "gemini-2.5-pro",
		Flash: "gemini-2.5-flash",
	}
}

// Exercise is one prescribed exercise within a workout day.
type Exercise struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	RestSeconds int    `json:"restSeconds,omitempty"`
}

// WorkoutDay is one day of a generated plan, in program order.
type WorkoutDay struct {
	Day       string     `json:"day"`
	Focus     string     `json:"focus,omitempty"`
	Exercises []Exercise `json:"exercises"`
}

// WorkoutPlan is the schema-validated result of plan generation.
type WorkoutPlan struct {
	Days []WorkoutDay `json:"days"`
}

// FoodItem is one recognized food in a meal photo.
type FoodItem struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity,omitempty"`
	Calories float64 `json:"calories"`
}

// NutritionInfo is the nutrition breakdown of a described meal.
type NutritionInfo struct {
	Calories float64            `json:"calories"`
	Protein  float64            `json:"protein"`
	Carbs    float64            `json:"carbs"`
	Fat      float64            `json:"fat"`
	Fiber    float64            `json:"fiber,omitempty"`
	Sugar    float64            `json:"sugar,omitempty"`
	Vitamins map[string]float64 `json:"vitamins,omitempty"`
	Minerals map[string]float64 `json:"minerals,omitempty"`
}

// GroundedAnswer is a search-grounded reply: answer text plus an ordered,
// deduplicated list of source citations (empty when the reply carried no
// grounding metadata).
type GroundedAnswer struct {
	Text      string         `json:"text"`
	Citations []llm.Citation `json:"citations"`
}
