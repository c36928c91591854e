package gateway

import (
	"context"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
)

// Verdict is the acquirer's answer to a direct card submission
type Verdict string

// Verdicts reported by the acquirer
const (
	VerdictExecuted          Verdict = "executed"
	VerdictChallengeRequired Verdict = "3DS_required"
	VerdictPending           Verdict = "pending"
)

// Buyer identifies the customer on the purchase
type Buyer struct {
	Email   string
	Country string
	ZipCode string
}

// Product describes what is being charged; the price is in minor units
type Product struct {
	Name  string
	Price int64
}

// CardDetails carries the raw card data for the direct post. Values of this
// type must never be logged or persisted.
type CardDetails struct {
	CardholderName string
	CardNumber     string
	Expires        string // MM/YY
	CVC            string
	RememberCard   string // "on" or "off"
}

// DeviceFingerprint carries the browser environment the acquirer needs for
// 3DS risk scoring
type DeviceFingerprint struct {
	RemoteIP          string
	UserAgent         string
	AcceptHeader      string
	Language          string
	JavaEnabled       bool
	JavascriptEnabled bool
	ColorDepth        int
	UTCOffset         int
	ScreenWidth       int
	ScreenHeight      int
}

// PurchaseHandle is the acquirer's reference for a newly created purchase
type PurchaseHandle struct {
	PurchaseID    string
	DirectPostURL string
}

// DirectPostResult is the interpreted outcome of the direct card submission.
// Challenge is set iff Verdict is VerdictChallengeRequired.
type DirectPostResult struct {
	Verdict   Verdict
	Challenge *entity.Challenge
}

// AcquirerGateway is the stateless adapter for the three outbound calls to
// the acquiring processor. Implementations must impose a bounded timeout on
// every call and surface timeouts as ErrGatewayUnavailable. SubmitCardDirect
// must never be retried automatically; retrying could double-submit a charge.
type AcquirerGateway interface {
	// CreatePurchase registers a new purchase with the acquirer
	//
	// Possible errors:
	// - ErrGatewayRejected: acquirer-side validation error
	// - ErrGatewayUnavailable: transport failure or timeout
	CreatePurchase(ctx context.Context, buyer Buyer, product Product) (*PurchaseHandle, error)

	// SubmitCardDirect posts the raw card data to the purchase's direct
	// post URL and interprets the verdict
	//
	// Possible errors:
	// - ErrInvalidCardDetails: acquirer reported a client error
	// - ErrUnexpectedVerdict: acquirer answered with an unknown status
	// - ErrGatewayUnavailable: transport failure or timeout
	SubmitCardDirect(ctx context.Context, directPostURL string, card CardDetails, device DeviceFingerprint) (*DirectPostResult, error)

	// SubmitChallengeResponse forwards the 3DS challenge response to the
	// acquirer-supplied callback URL. The acquirer's reply is a best-effort
	// acknowledgment; final status only ever arrives via webhook.
	//
	// Possible errors:
	// - ErrInvalidChallengeResponse: acquirer reported a client error
	// - ErrGatewayUnavailable: transport failure or timeout
	SubmitChallengeResponse(ctx context.Context, callbackURL, contextToken, responseToken string) error
}
