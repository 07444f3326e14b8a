package mcp

// Tool metadata for search_documents.
const (
	ToolSearchDocuments        = "search_documents"
	searchDocumentsDescription = "Search your personal documents for information."
	queryDescription           = "The search query"
)

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// SearchDocumentsInput defines the input schema for the search_documents tool.
type SearchDocumentsInput struct {
	Query string `json:"query" jsonschema:"The search query"`
}

// searchDocumentsSchema returns the JSON schema advertised for the tool.
func searchDocumentsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": queryDescription,
			},
		},
		"required": []string{"query"},
	}
}

// queryArg extracts the query from raw tool arguments.
func queryArg(args map[string]any) (string, error) {
	raw, ok := args["query"]
	if !ok || raw == nil {
		return "", NewInvalidParamsError("query parameter is required")
	}
	query, ok := raw.(string)
	if !ok {
		return "", NewInvalidParamsError("query parameter must be a string")
	}
	return query, nil
}
