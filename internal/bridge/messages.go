package bridge

import (
	"encoding/json"
	"fmt"
)

// Command names an inbound request from the UI.
type Command string

const (
	CommandImport Command = "import-translations"
	CommandScan   Command = "scan-assets"
	CommandExport Command = "export-assets"
	CommandClose  Command = "close"
)

// Event names an outbound notification to the UI.
type Event string

const (
	EventProgress  Event = "progress"
	EventCompleted Event = "completed"
	EventError     Event = "error"
)

// Inbound is a message received from the UI.
type Inbound struct {
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound is a message sent to the UI.
type Outbound struct {
	Event           Event  `json:"event"`
	Message         string `json:"message,omitempty"`
	PercentComplete int    `json:"percentComplete,omitempty"`
	Summary         any    `json:"summary,omitempty"`
}

// csvPayload extracts the raw CSV text of an import command.
func csvPayload(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", fmt.Errorf("decode import payload: %w", err)
	}
	return text, nil
}

// selectionPayload accepts {"ids": [...]} or a bare array of ids.
func selectionPayload(raw json.RawMessage) ([]string, error) {
	var sel struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(raw, &sel); err == nil {
		return sel.IDs, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode export selection: %w", err)
	}
	return ids, nil
}
