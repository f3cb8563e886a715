package x402

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// ValidityWindow bounds how long a signed authorization stays usable.
const ValidityWindow = time.Hour

// Signer produces an EIP-712 signature over the typed authorization. The
// actual signing lives with the wallet; this package only fixes the payload
// shape it must cover.
type Signer func(domain EIP712Domain, auth Authorization) (string, error)

// BuildAuthorization constructs an EIP-3009 authorization for a transfer of
// valueBaseUnits from -> to, valid from 5 minutes in the past (clock skew)
// until ValidityWindow past now, with a fresh random 32-byte nonce.
func BuildAuthorization(from, to, valueBaseUnits string, now time.Time) (Authorization, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return Authorization{}, fmt.Errorf("generate authorization nonce: %w", err)
	}

	return Authorization{
		From:        from,
		To:          to,
		Value:       valueBaseUnits,
		ValidAfter:  strconv.FormatInt(now.Add(-5*time.Minute).Unix(), 10),
		ValidBefore: strconv.FormatInt(now.Add(ValidityWindow).Unix(), 10),
		Nonce:       "0x" + hex.EncodeToString(nonce),
	}, nil
}

// BuildEnvelope signs the authorization and wraps it into the header
// envelope for the given network.
func BuildEnvelope(network string, domain EIP712Domain, auth Authorization, sign Signer) (*Envelope, error) {
	sig, err := sign(domain, auth)
	if err != nil {
		return nil, fmt.Errorf("sign authorization: %w", err)
	}

	return &Envelope{
		X402Version: Version,
		Scheme:      SchemeExact,
		Network:     network,
		Payload: Payload{
			Signature:     sig,
			Authorization: auth,
			EIP712Domain:  domain,
		},
	}, nil
}
