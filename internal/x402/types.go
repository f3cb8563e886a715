// Package x402 implements the HTTP 402 payment challenge/response protocol
// over EIP-3009 transfer-with-authorization payloads: the challenge body,
// the base64 envelope carried in the X-Payment header, price conversion to
// token base units, and the facilitator verify/settle client.
package x402

// Version is the protocol version accepted in payment envelopes.
const Version = 1

// SchemeExact is the only supported payment scheme: the signed value must
// cover the quoted amount exactly.
const SchemeExact = "exact"

// AssetDecimals is the base-unit scale of the stablecoin (USDC: 10^6).
const AssetDecimals = 6

// Authorization mirrors the EIP-3009 TransferWithAuthorization message.
// Value, ValidAfter and ValidBefore are decimal-string encoded integers;
// Nonce is a 32-byte hex string.
type Authorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// EIP712Domain identifies the token contract the authorization was signed for.
type EIP712Domain struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	ChainID           int64  `json:"chainId"`
	VerifyingContract string `json:"verifyingContract"`
}

// Payload carries the signature and the authorization it covers.
type Payload struct {
	Signature     string        `json:"signature"`
	Authorization Authorization `json:"authorization"`
	EIP712Domain  EIP712Domain  `json:"eip712Domain"`
}

// Envelope is the JSON document base64-encoded into the X-Payment header.
type Envelope struct {
	X402Version int     `json:"x402Version"`
	Scheme      string  `json:"scheme"`
	Network     string  `json:"network"`
	Payload     Payload `json:"payload"`
}

// Requirements tells a client what a 402 response demands.
type Requirements struct {
	Recipient         string `json:"recipient"`
	Asset             string `json:"asset"`
	MaxAmountRequired string `json:"maxAmountRequired"`
	Description       string `json:"description"`
}

// PaymentInfo is the human-oriented mirror of Requirements in the 402 body.
type PaymentInfo struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Recipient   string `json:"recipient"`
	Network     string `json:"network"`
	Asset       string `json:"asset"`
	Facilitator string `json:"facilitator"`
}

// PaymentRequired is the JSON body of a 402 challenge.
type PaymentRequired struct {
	X402Version  int          `json:"x402Version"`
	Scheme       string       `json:"scheme"`
	Network      string       `json:"network"`
	Requirements Requirements `json:"requirements"`
	PaymentInfo  PaymentInfo  `json:"paymentInfo"`
}

// VerifyResponse is the facilitator's answer to a verification request.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// SettleResponse is the facilitator's answer to a settlement request.
type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction,omitempty"`
	Network     string `json:"network,omitempty"`
}
