package ledger

import (
	"fmt"
	"strings"
	"time"
)

const noAdditionalTerms = "No additional terms specified."

// RenderLeaseDocument renders the agreement text frozen into an active lease
func RenderLeaseDocument(l Lease) string {
	terms := l.Terms
	if strings.TrimSpace(terms) == "" {
		terms = noAdditionalTerms
	}
	return fmt.Sprintf(`LEASE AGREEMENT

Property: %s
Lease ID: %s
Landlord: %s
Tenant: %s
Rent Amount: %s ETH per %s
Security Deposit: %s ETH
Lease Period: %s to %s
Payment Cycle: %s

Additional Terms:
%s

Signatures:
Landlord: %s
Tenant: %s

Created: %s`,
		l.PropertyLocation,
		l.ID,
		l.Landlord,
		l.Tenant,
		l.RentAmount, l.PaymentCycle,
		l.SecurityDeposit,
		l.StartDate.Format(time.DateOnly), l.EndDate.Format(time.DateOnly),
		l.PaymentCycle,
		terms,
		l.LandlordSignature.Token,
		l.TenantSignature.Token,
		l.CreatedAt.UTC().Format(time.RFC3339),
	)
}
