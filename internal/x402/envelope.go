package x402

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// DecodeEnvelope decodes and schema-validates an X-Payment header value.
// The envelope is rejected on any shape mismatch before field access; the
// caller never has to defend against partially-populated payloads.
func DecodeEnvelope(header string) (*Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("payment header is not valid base64: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("payment header is not valid JSON: %w", err)
	}

	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// EncodeEnvelope is the inverse of DecodeEnvelope, used by the client-side
// authorization builder.
func EncodeEnvelope(env *Envelope) (string, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal payment envelope: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (e *Envelope) validate() error {
	if e.X402Version != Version {
		return fmt.Errorf("unsupported x402 version %d", e.X402Version)
	}
	if e.Scheme != SchemeExact {
		return fmt.Errorf("unsupported payment scheme %q", e.Scheme)
	}
	if e.Network == "" {
		return fmt.Errorf("missing network")
	}
	if e.Payload.Signature == "" {
		return fmt.Errorf("missing signature")
	}

	auth := e.Payload.Authorization
	if auth.From == "" || auth.To == "" {
		return fmt.Errorf("missing authorization addresses")
	}
	for name, v := range map[string]string{
		"value":       auth.Value,
		"validAfter":  auth.ValidAfter,
		"validBefore": auth.ValidBefore,
	} {
		if _, ok := new(big.Int).SetString(v, 10); !ok {
			return fmt.Errorf("authorization %s is not a decimal integer string", name)
		}
	}

	nonce := strings.TrimPrefix(auth.Nonce, "0x")
	if b, err := hex.DecodeString(nonce); err != nil || len(b) != 32 {
		return fmt.Errorf("authorization nonce must be a 32-byte hex string")
	}
	return nil
}

// ValueBaseUnits returns the signed transfer value as a big integer.
func (e *Envelope) ValueBaseUnits() *big.Int {
	v, _ := new(big.Int).SetString(e.Payload.Authorization.Value, 10)
	return v
}
