package main

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// formatTimestamp converts a Unix timestamp (float64, seconds since epoch)
// to a human-readable string in RFC3339 format.
func formatTimestamp(timestamp float64) string {
	timeObj := time.Unix(int64(timestamp), 0)
	return timeObj.Format(time.RFC3339)
}

// emit prints v in the selected --format. Text output is delegated to text.
func emit(v any, text func()) error {
	switch formatFlag {
	case "json":
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Println(string(output))
	case "yaml":
		// Round-trip through JSON so YAML keys match the API field names.
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		output, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Print(string(output))
	default:
		text()
	}
	return nil
}
