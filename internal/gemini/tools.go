package gemini

import "google.golang.org/genai"

func periodSchema() *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeString,
		Description: "Reporting period granularity",
		Enum:        []string{"hourly", "daily", "weekly", "monthly"},
	}
}

// declarations lists the tools the model may call. Names and argument shapes
// line up one-to-one with the rule-based router's Execute dispatch.
func declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "list_collections",
			Description: "List the data collections available for reporting.",
		},
		{
			Name:        "describe_collection",
			Description: "Summarize the fields of a collection and the value types seen in a sample.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"collection": {
						Type:        genai.TypeString,
						Description: "Collection to describe",
						Enum:        []string{"deliveries", "lorries"},
					},
				},
				Required: []string{"collection"},
			},
		},
		{
			Name:        "totals",
			Description: "Overall delivery count, total weight and unique lorries for the reporting window.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"period": periodSchema()},
			},
		},
		{
			Name:        "by_period",
			Description: "Total delivered weight broken down by period and lorry type.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"period": periodSchema()},
			},
		},
		{
			Name:        "by_lorry_type",
			Description: "Total delivered weight per lorry type, heaviest first.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"period": periodSchema()},
			},
		},
	}
}
