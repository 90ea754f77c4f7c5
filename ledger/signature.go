package ledger

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Signer produces the token recorded for a party's agreement
type Signer interface {
	Sign(role Role, address, message string) (string, error)
}

// PlaceholderSigner derives a token from the message text. It proves nothing
// and exists so the workflow can run without a wallet.
type PlaceholderSigner struct{}

func (PlaceholderSigner) Sign(_ Role, _ string, message string) (string, error) {
	encoded := base64.StdEncoding.EncodeToString([]byte(message))
	if len(encoded) > 40 {
		encoded = encoded[:40]
	}
	return "0x" + encoded + "...", nil
}

// SignatureMessage is the statement a party agrees to
func SignatureMessage(role Role, address, location string, at time.Time) string {
	return fmt.Sprintf("I, %s (%s), agree to the lease agreement for %s on %s",
		role.Title(), address, location, at.UTC().Format(time.RFC3339))
}
