package coach

import "github.com/DandaAkhilReddy/ReddyFitV2/llm"

// Response schemas attached to structured-output requests. They mirror the
// typed results in types.go; extraction rejects anything that does not
// decode into those types.

func workoutPlanSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"days": {
				Type: llm.TypeArray,
				Items: &llm.Schema{
					Type: llm.TypeObject,
					Properties: map[string]*llm.Schema{
						"day":   {Type: llm.TypeString},
						"focus": {Type: llm.TypeString},
						"exercises": {
							Type: llm.TypeArray,
							Items: &llm.Schema{
								Type: llm.TypeObject,
								Properties: map[string]*llm.Schema{
									"name":        {Type: llm.TypeString},
									"sets":        {Type: llm.TypeInteger},
									"reps":        {Type: llm.TypeString},
									"restSeconds": {Type: llm.TypeInteger},
								},
								Required: []string{"name", "sets", "reps"},
							},
						},
					},
					Required: []string{"day", "exercises"},
				},
			},
		},
		Required: []string{"days"},
	}
}

func foodListSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeArray,
		Items: &llm.Schema{
			Type: llm.TypeObject,
			Properties: map[string]*llm.Schema{
				"name":     {Type: llm.TypeString},
				"quantity": {Type: llm.TypeString},
				"calories": {Type: llm.TypeNumber},
			},
			Required: []string{"name", "calories"},
		},
	}
}

func nutritionSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"calories": {Type: llm.TypeNumber},
			"protein":  {Type: llm.TypeNumber},
			"carbs":    {Type: llm.TypeNumber},
			"fat":      {Type: llm.TypeNumber},
			"fiber":    {Type: llm.TypeNumber},
			"sugar":    {Type: llm.TypeNumber},
			"vitamins": {
				Type:        llm.TypeObject,
				Description: "vitamin name to amount in mg",
			},
			"minerals": {
				Type:        llm.TypeObject,
				Description: "mineral name to amount in mg",
			},
		},
		Required: []string{"calories", "protein", "carbs", "fat"},
	}
}
