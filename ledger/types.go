package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ListingType tells whether a property is offered for rent or for sale
type ListingType string

const (
	ListingRent ListingType = "rent"
	ListingSale ListingType = "sale"
)

func (t ListingType) Valid() bool {
	return t == ListingRent || t == ListingSale
}

// PropertyStatus is the availability of a property
type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "available"
	PropertyLeased    PropertyStatus = "leased"
)

// RequestStatus is the state of a tenant's lease request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// Role is the part a wallet plays in the marketplace
type Role string

const (
	RoleLandlord Role = "landlord"
	RoleTenant   Role = "tenant"
)

func (r Role) Valid() bool {
	return r == RoleLandlord || r == RoleTenant
}

// Title returns the capitalized role name used in signature messages
func (r Role) Title() string {
	if r == RoleLandlord {
		return "Landlord"
	}
	return "Tenant"
}

// PaymentCycle is how often rent is due
type PaymentCycle string

const (
	CycleMonthly   PaymentCycle = "monthly"
	CycleQuarterly PaymentCycle = "quarterly"
	CycleYearly    PaymentCycle = "yearly"
)

func (c PaymentCycle) Valid() bool {
	switch c {
	case CycleMonthly, CycleQuarterly, CycleYearly:
		return true
	}
	return false
}

// LeaseStatus is the state of a materialized lease. Only active is modeled.
type LeaseStatus string

const LeaseActive LeaseStatus = "active"

// Property represents a listing registered by a landlord
type Property struct {
	ID             string          `json:"id"`
	Location       string          `json:"location"`
	Area           decimal.Decimal `json:"area"`
	Price          decimal.Decimal `json:"price"`
	ListingType    ListingType     `json:"listingType"`
	Owner          string          `json:"owner"`
	Status         PropertyStatus  `json:"status"`
	CurrentLeaseID *string         `json:"currentLeaseId,omitempty"`
	LeasedTo       *string         `json:"leasedTo,omitempty"`
	LeasedAt       *time.Time      `json:"leasedAt,omitempty"`
	ImagePreview   string          `json:"imagePreview,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func (p Property) clone() Property {
	p.CurrentLeaseID = clonePtr(p.CurrentLeaseID)
	p.LeasedTo = clonePtr(p.LeasedTo)
	p.LeasedAt = clonePtr(p.LeasedAt)
	return p
}

// OwnedBy reports whether address owns the property, ignoring case
func (p Property) OwnedBy(address string) bool {
	return SameAddress(p.Owner, address)
}

// LeaseRequest represents a tenant's offer against a property
type LeaseRequest struct {
	ID               string          `json:"id"`
	PropertyID       string          `json:"propertyId"`
	Tenant           string          `json:"tenant"`
	Landlord         string          `json:"landlord,omitempty"`
	PropertyLocation string          `json:"propertyLocation,omitempty"`
	OfferAmount      decimal.Decimal `json:"offerAmount"`
	Status           RequestStatus   `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// Signature is the evidence a party agreed to a lease. The token is opaque and
// is not cryptographically verifiable.
type Signature struct {
	Signer    string    `json:"signer"`
	Role      Role      `json:"role"`
	Token     string    `json:"signatureToken"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Lease is an activated agreement. It is immutable once created.
type Lease struct {
	ID                string          `json:"id"`
	PropertyID        string          `json:"propertyId"`
	RequestID         string          `json:"requestId,omitempty"`
	Landlord          string          `json:"landlord"`
	Tenant            string          `json:"tenant"`
	PropertyLocation  string          `json:"propertyLocation,omitempty"`
	RentAmount        decimal.Decimal `json:"rentAmount"`
	SecurityDeposit   decimal.Decimal `json:"securityDeposit"`
	StartDate         time.Time       `json:"startDate"`
	EndDate           time.Time       `json:"endDate"`
	PaymentCycle      PaymentCycle    `json:"paymentCycle"`
	Terms             string          `json:"terms,omitempty"`
	LandlordSignature Signature       `json:"landlordSignature"`
	TenantSignature   Signature       `json:"tenantSignature"`
	Status            LeaseStatus     `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	Document          string          `json:"leaseDocument"`
}

// SameAddress compares two wallet addresses case-insensitively. Blank
// addresses never match.
func SameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

// normalizeProperty fills defaults for fields older blobs may omit
func normalizeProperty(p Property) Property {
	if p.Status == "" {
		p.Status = PropertyAvailable
	}
	if p.ListingType == "" {
		p.ListingType = ListingRent
	}
	return p
}

func normalizeRequest(r LeaseRequest) LeaseRequest {
	if r.Status == "" {
		r.Status = RequestPending
	}
	return r
}

func normalizeLease(l Lease) Lease {
	if l.Status == "" {
		l.Status = LeaseActive
	}
	if l.PaymentCycle == "" {
		l.PaymentCycle = CycleMonthly
	}
	return l
}
