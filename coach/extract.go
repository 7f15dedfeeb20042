package coach

import (
	"encoding/json"

	"github.com/DandaAkhilReddy/ReddyFitV2/llm"
)

// decodeStrict parses text as JSON into T. Any parse failure, including a
// wrong container shape (an object where a list was declared, or the
// reverse), fails with KindMalformedOutput. No repair or partial decode is
// attempted: downstream logic must never see partially-valid data.
func decodeStrict[T any](text string) (*T, error) {
	var value T
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, llm.NewError(llm.KindMalformedOutput, "model returned malformed JSON").WithCause(err)
	}
	return &value, nil
}

func extractWorkoutPlan(resp *llm.GenerateResponse) (*WorkoutPlan, error) {
	text, err := llm.ResponseText(resp)
	if err != nil {
		return nil, err
	}
	plan, err := decodeStrict[WorkoutPlan](text)
	if err != nil {
		return nil, err
	}
	if len(plan.Days) == 0 {
		return nil, llm.NewError(llm.KindMalformedOutput, "workout plan has no days")
	}
	return plan, nil
}

func extractFoodItems(resp *llm.GenerateResponse) ([]FoodItem, error) {
	text, err := llm.ResponseText(resp)
	if err != nil {
		return nil, err
	}
	items, err := decodeStrict[[]FoodItem](text)
	if err != nil {
		return nil, err
	}
	return *items, nil
}

func extractNutrition(resp *llm.GenerateResponse) (*NutritionInfo, error) {
	text, err := llm.ResponseText(resp)
	if err != nil {
		return nil, err
	}
	return decodeStrict[NutritionInfo](text)
}

// extractGroundedAnswer maps a safety refusal to KindSafetyBlocked before
// looking at any text: a SAFETY finish is a refusal even when partial text
// is present.
func extractGroundedAnswer(resp *llm.GenerateResponse) (*GroundedAnswer, error) {
	if llm.IsSafetyFinish(resp) {
		return nil, llm.NewError(llm.KindSafetyBlocked,
			"the question was blocked by safety filters, try rephrasing it")
	}
	text, err := llm.ResponseText(resp)
	if err != nil {
		return nil, err
	}
	return &GroundedAnswer{
		Text:      text,
		Citations: llm.ResponseCitations(resp),
	}, nil
}
