// Package schemas embeds the JSON Schema documents shipped with the service.
package schemas

import (
	"embed"
	"fmt"
)

//go:embed *.schema.json
var files embed.FS

// Schema names.
const (
	Config                 = "config"
	RecommendationResponse = "recommendation_response"
	Status                 = "status"
)

// Load returns the raw schema document for name (without the
// ".schema.json" suffix).
func Load(name string) ([]byte, error) {
	data, err := files.ReadFile(name + ".schema.json")
	if err != nil {
		return nil, fmt.Errorf("unknown schema %q: %w", name, err)
	}
	return data, nil
}

// Names lists every embedded schema.
func Names() []string {
	return []string{Config, RecommendationResponse, Status}
}
