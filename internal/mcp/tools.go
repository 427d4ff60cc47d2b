package mcp

// toolDefinitions returns the tools/list payload.
func toolDefinitions() []map[string]any {
	return []map[string]any{
		{
			"name": "video_recommend",
			"description": `Recommend up to five videos whose title or category contains a keyword.

The match is a case-insensitive substring match. Results are ordered by
predicted performance (High, then Medium, then Low), catalog order breaking
ties. The first video is the top pick and carries a 0-100 score; the others
carry their rank (2-5).

Returns: JSON with "found", "top" and "videos", or a message when nothing matches.`,
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"keyword": map[string]any{
						"type":        "string",
						"description": "Keyword to look for, e.g. \"ai\" or \"cooking\"",
						"maxLength":   200,
					},
				},
				"required": []string{"keyword"},
			},
		},
		{
			"name": "video_search",
			"description": `Full-text search over video titles, categories, uploaders and tags.

Unlike video_recommend this analyzes the query into words and ranks by
relevance, or by score, views, likes or recency.`,
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":      "string",
						"maxLength": 200,
					},
					"count": map[string]any{
						"type":    "integer",
						"minimum": 1,
						"maximum": 50,
						"default": 9,
					},
					"sort": map[string]any{
						"type":    "string",
						"enum":    []string{"relevance", "score", "views", "likes", "recent"},
						"default": "relevance",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			"name":        "catalog_stats",
			"description": "Catalog size, maximum views and likes, and how many videos fall in each performance category.",
			"inputSchema": map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}
