package profile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"littlesteps/internal/models"
)

// Storage keys shared with the browser layout this data was first kept in.
const (
	ProfilesKey = "childProfiles"
	SelectedKey = "selectedChildId"
)

// SchemaVersion is written with every persisted collection. Version 0 is the
// bare array layout.
const SchemaVersion = 1

type envelope struct {
	Version  int                   `json:"version"`
	Profiles []models.ChildProfile `json:"profiles"`
}

func encodeProfiles(profiles []models.ChildProfile) (string, error) {
	if profiles == nil {
		profiles = []models.ChildProfile{}
	}
	b, err := json.Marshal(envelope{Version: SchemaVersion, Profiles: profiles})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeProfiles(raw string) ([]models.ChildProfile, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 {
		return nil, fmt.Errorf("empty profile data")
	}

	if data[0] == '[' {
		var legacy []models.ChildProfile
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("invalid legacy profile list: %w", err)
		}
		return legacy, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid profile envelope: %w", err)
	}
	if env.Version > SchemaVersion {
		return nil, fmt.Errorf("unsupported profile schema version %d", env.Version)
	}
	return env.Profiles, nil
}

// Snapshot is the portable form of a store, used for export and import.
type Snapshot struct {
	Version    int                   `json:"version"`
	Profiles   []models.ChildProfile `json:"profiles"`
	SelectedID string                `json:"selectedId,omitempty"`
}
