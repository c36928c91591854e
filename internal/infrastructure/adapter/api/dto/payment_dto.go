package dto

// CreatePaymentIntentRequest represents the API request for a new payment.
// Card fields are passed through to the acquirer and never logged.
type CreatePaymentIntentRequest struct {
	Email          string `json:"email" binding:"required,email"`
	CardholderName string `json:"cardholderName" binding:"required"`
	CardNumber     string `json:"cardNumber" binding:"required"`
	Expires        string `json:"expires" binding:"required"`
	CVV            string `json:"cvv" binding:"required,len=3"`
	Country        string `json:"country" binding:"required,iso3166_1_alpha2"`
	ZipCode        string `json:"zipCode" binding:"required"`
	RememberCard   string `json:"rememberCard" binding:"required,oneof=on off"`

	// Browser environment for 3DS risk scoring
	JavaEnabled       bool `json:"javaEnabled"`
	JavascriptEnabled bool `json:"javascriptEnabled"`
	ColorDepth        int  `json:"colorDepth"`
	UTCOffset         int  `json:"utcOffset"`
	ScreenWidth       int  `json:"screenWidth"`
	ScreenHeight      int  `json:"screenHeight"`
}

// ChallengeResponse exposes the 3DS redirect fields to the caller
type ChallengeResponse struct {
	Method       string `json:"method"`
	RequestToken string `json:"requestToken"`
	ContextToken string `json:"contextToken"`
	RedirectURL  string `json:"redirectUrl"`
}

// PaymentIntentResponse represents the API response for a create request
type PaymentIntentResponse struct {
	Status    string             `json:"status"`
	Challenge *ChallengeResponse `json:"challenge,omitempty"`
}

// WebhookEventRequest represents an acquirer webhook delivery
type WebhookEventRequest struct {
	EventType  string `json:"event_type" binding:"required"`
	PurchaseID string `json:"purchase_id" binding:"required"`
}

// ChallengeReturnRequest represents the browser return from the bank's
// access-control server. The ACS posts it form-encoded under the legacy
// 3DS field names.
type ChallengeReturnRequest struct {
	ContextToken  string `form:"MD" json:"contextToken" binding:"required"`
	ResponseToken string `form:"PaRes" json:"responseToken" binding:"required"`
}
