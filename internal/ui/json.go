package ui

import (
	"encoding/json"
	"fmt"

	"github.com/sudocarlos/tailrelay-composetest/internal/domain"
)

type OutcomeJSON struct {
	Description string `json:"description"`
	Target      string `json:"target"`
	Status      string `json:"status"`
	ExitCode    int    `json:"exit_code"`
}

// JSONReport renders outcomes as an indented JSON document.
type JSONReport struct{}

func NewJSONReport() *JSONReport {
	return &JSONReport{}
}

func (r *JSONReport) Render(outcomes []domain.ProbeOutcome) string {
	results := make([]OutcomeJSON, 0, len(outcomes))
	for _, o := range outcomes {
		results = append(results, OutcomeJSON{
			Description: o.Description,
			Target:      o.Target,
			Status:      string(o.Status),
			ExitCode:    o.ExitCode,
		})
	}

	data, err := json.MarshalIndent(map[string][]OutcomeJSON{"results": results}, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
