package vault

import (
	"encoding/json"
	"fmt"
	"time"
)

const payloadVersion = 1

// payload is the plaintext sealed inside a vault file.
type payload struct {
	Version  int               `json:"version"`
	Modified time.Time         `json:"modified"`
	Secrets  map[string]string `json:"secrets"`
}

func encodePayload(secrets map[string]string) ([]byte, error) {
	p := payload{
		Version:  payloadVersion,
		Modified: time.Now().UTC(),
		Secrets:  secrets,
	}
	if p.Secrets == nil {
		p.Secrets = map[string]string{}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal secrets: %w", err)
	}
	return data, nil
}

func decodePayload(data []byte) (map[string]string, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", ErrVaultCorrupted, err)
	}
	if p.Version != payloadVersion {
		return nil, fmt.Errorf("%w: unsupported payload version %d", ErrVaultCorrupted, p.Version)
	}
	if p.Secrets == nil {
		p.Secrets = map[string]string{}
	}
	return p.Secrets, nil
}
