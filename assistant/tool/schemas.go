package tool

import (
	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
)

const (
	ToolCheckAvailability = "check_availability"
	ToolCheckPetPolicy    = "check_pet_policy"
	ToolGetPricing        = "get_pricing"
	ToolFindTourSlots     = "find_tour_slots"
)

// Schemas declares the four lookup functions offered to the model. The
// registry validates its handler table against this set at startup.
func Schemas() []contractx.ToolSchema {
	return []contractx.ToolSchema{
		{
			Name:        ToolCheckAvailability,
			Description: "Check available units in a community by bedroom count",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"community_id": map[string]any{
						"type":        "string",
						"description": "The community ID to search in",
					},
					"bedrooms": map[string]any{
						"type":        "integer",
						"description": "Number of bedrooms requested",
					},
				},
				"required": []string{"community_id", "bedrooms"},
			},
		},
		{
			Name:        ToolCheckPetPolicy,
			Description: "Check pet policy for a specific pet type in a community",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"community_id": map[string]any{
						"type":        "string",
						"description": "The community ID to check policy for",
					},
					"pet_type": map[string]any{
						"type":        "string",
						"description": "Type of pet (e.g., 'cat', 'dog')",
					},
				},
				"required": []string{"community_id", "pet_type"},
			},
		},
		{
			Name:        ToolGetPricing,
			Description: "Get pricing information for a specific unit",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"community_id": map[string]any{
						"type":        "string",
						"description": "The community ID",
					},
					"unit_id": map[string]any{
						"type":        "string",
						"description": "The unit ID to get pricing for",
					},
					"move_in_date": map[string]any{
						"type":        "string",
						"description": "Move-in date in YYYY-MM-DD format",
					},
				},
				"required": []string{"community_id", "unit_id", "move_in_date"},
			},
		},
		{
			Name:        ToolFindTourSlots,
			Description: "Find open tour slots in a community within a date range",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"community_id": map[string]any{
						"type":        "string",
						"description": "The community ID",
					},
					"start_date": map[string]any{
						"type":        "string",
						"description": "Range start in YYYY-MM-DD format",
					},
					"end_date": map[string]any{
						"type":        "string",
						"description": "Range end in YYYY-MM-DD format",
					},
				},
				"required": []string{"community_id", "start_date", "end_date"},
			},
		},
	}
}
