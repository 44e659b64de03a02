package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func idList(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "integer"},
		"description": description,
	}
}

func nameList(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}

var limitProperty = map[string]any{
	"type":        "integer",
	"description": "Maximum number of results to return (default from config)",
}

// ToolDefinitions contains all available MCP tools
var ToolDefinitions = []Tool{
	{
		Name: "match_candidates",
		Description: "Find candidates for one or more roles. Hard constraints filter candidates out; " +
			"desired skills, specialties and experience rank the rest by a 0-100 match score.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"role":                 idList("Role IDs; a candidate must have one of them. Required: no roles means no results."),
				"required_tech_skills": idList("Skill IDs a candidate must have all of"),
				"required_specialties": nameList("Specialty names a candidate must have all of (case-sensitive)"),
				"joined_after": map[string]any{
					"type":        "string",
					"description": "Only candidates who joined after this date, as month/day/year (e.g. 4/23/2021)",
				},
				"member": map[string]any{
					"type":        "boolean",
					"description": "Only members",
				},
				"exclude_unavailable": map[string]any{
					"type":        "boolean",
					"description": "Drop candidates known to be unavailable",
				},
				"exclude_unknown": map[string]any{
					"type":        "boolean",
					"description": "Drop candidates whose availability is unknown",
				},
				"desired_tech_skills": idList("Skill IDs that raise the score (50% of the total)"),
				"desired_specialties": nameList("Specialty names that raise the score (30% of the total)"),
				"desired_experience":  idList("Experience level IDs that add 20% to the score"),
				"limit":               limitProperty,
			},
			"required": []string{"role"},
		},
	},
	{
		Name:        "get_candidate",
		Description: "Get the full profile of a candidate by user ID.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "string",
					"description": "Candidate user ID",
				},
			},
			"required": []string{"user_id"},
		},
	},
	{
		Name:        "list_selections",
		Description: "List saved candidate selections (named match queries).",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "run_selection",
		Description: "Run a saved selection against the current candidate pool.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"selection": map[string]any{
					"type":        "string",
					"description": "Selection name or ID",
				},
				"limit": limitProperty,
			},
			"required": []string{"selection"},
		},
	},
	{
		Name:        "get_stats",
		Description: "Get candidate pool statistics: totals, members and availability counts.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}
