package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FacilitatorClient talks to the external payment facilitator that checks a
// signed authorization against the chain and executes the transfer, so this
// service never holds private keys.
type FacilitatorClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewFacilitatorClient(baseURL string) *FacilitatorClient {
	return &FacilitatorClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type facilitatorRequest struct {
	X402Version         int           `json:"x402Version"`
	PaymentPayload      *Envelope     `json:"paymentPayload"`
	PaymentRequirements *Requirements `json:"paymentRequirements"`
}

// Verify asks the facilitator whether the signed authorization is valid for
// the stated requirements. A negative answer carries the upstream reason.
func (c *FacilitatorClient) Verify(ctx context.Context, env *Envelope, reqs *Requirements) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := c.post(ctx, "/verify", &facilitatorRequest{
		X402Version:         Version,
		PaymentPayload:      env,
		PaymentRequirements: reqs,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Settle asks the facilitator to execute the transfer on-chain.
func (c *FacilitatorClient) Settle(ctx context.Context, env *Envelope, reqs *Requirements) (*SettleResponse, error) {
	var out SettleResponse
	if err := c.post(ctx, "/settle", &facilitatorRequest{
		X402Version:         Version,
		PaymentPayload:      env,
		PaymentRequirements: reqs,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *FacilitatorClient) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal facilitator request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create facilitator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("facilitator call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("facilitator %s returned status %d: %s", path, resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode facilitator %s response: %w", path, err)
	}
	return nil
}
