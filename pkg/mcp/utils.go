package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// stringArg returns a trimmed string argument and whether it was provided non-empty.
func stringArg(request mcp.CallToolRequest, name string) (string, bool) {
	v, ok := request.Params.Arguments[name].(string)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// optionalStringArg returns a pointer to a string argument when it was sent at all,
// including the empty string.
func optionalStringArg(request mcp.CallToolRequest, name string) *string {
	v, ok := request.Params.Arguments[name].(string)
	if !ok {
		return nil
	}
	return &v
}

// jsonResult serializes v as the text of a tool result.
func jsonResult(v any, what string) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize %s to JSON: %v", what, err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
