package storage

import (
	"encoding/json"
	"fmt"

	"freelanceflow/internal/core"
)

// DocumentVersion is the version written into every stored aggregate.
const DocumentVersion = 1

type document struct {
	Version int           `json:"version"`
	Data    core.UserData `json:"data"`
}

// EncodeUserData serializes an aggregate into its stored form.
func EncodeUserData(data core.UserData) ([]byte, error) {
	if data.Transactions == nil {
		data.Transactions = []core.Transaction{}
	}
	if data.Pots == nil {
		data.Pots = []core.Pot{}
	}
	if data.Tasks == nil {
		data.Tasks = []core.Task{}
	}
	if data.Profile.Badges == nil {
		data.Profile.Badges = []string{}
	}
	b, err := json.Marshal(document{Version: DocumentVersion, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode user data: %w", err)
	}
	return b, nil
}

// DecodeUserData parses a stored aggregate. Documents written before
// versioning (a bare aggregate) are accepted too.
func DecodeUserData(b []byte) (core.UserData, error) {
	var probe struct {
		Version *int            `json:"version"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return core.UserData{}, fmt.Errorf("decode user data: %w", err)
	}

	raw := b
	if probe.Version != nil {
		if *probe.Version > DocumentVersion {
			return core.UserData{}, fmt.Errorf("decode user data: unsupported version %d", *probe.Version)
		}
		raw = probe.Data
	}

	var data core.UserData
	if err := json.Unmarshal(raw, &data); err != nil {
		return core.UserData{}, fmt.Errorf("decode user data: %w", err)
	}
	if data.Tier == "" {
		data.Tier = core.TierFree
	}
	return data, nil
}
