package acquirer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
	errs "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	coreport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/core"
	gatewayport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/gateway"
)

// Config is the immutable acquirer configuration the client is constructed
// with. APIKey authenticates purchase creation; S2SToken authenticates the
// server-to-server direct post.
type Config struct {
	APIURL          string
	APIKey          string
	S2SToken        string
	BrandID         string
	SuccessRedirect string
	FailureRedirect string
	RequestTimeout  time.Duration
}

// Client performs the three outbound calls to the acquiring processor over
// its HTTP API. It is stateless; every method is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     coreport.Logger
}

// NewClient creates a new acquirer gateway client
func NewClient(config Config, logger coreport.Logger) *Client {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// createPurchaseRequest is the payload sent to POST /v1/purchases/
type createPurchaseRequest struct {
	Client          purchaseClient  `json:"client"`
	Purchase        purchaseDetails `json:"purchase"`
	BrandID         string          `json:"brand_id"`
	SuccessRedirect string          `json:"success_redirect,omitempty"`
	FailureRedirect string          `json:"failure_redirect,omitempty"`
}

type purchaseClient struct {
	Email   string `json:"email"`
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

type purchaseDetails struct {
	Products []purchaseProduct `json:"products"`
}

type purchaseProduct struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// createPurchaseResponse is the acquirer's answer to purchase creation
type createPurchaseResponse struct {
	ID            string `json:"id"`
	DirectPostURL string `json:"direct_post_url"`
}

// CreatePurchase registers a new purchase with the acquirer
func (c *Client) CreatePurchase(ctx context.Context, buyer gatewayport.Buyer, product gatewayport.Product) (*gatewayport.PurchaseHandle, error) {
	payload := createPurchaseRequest{
		Client: purchaseClient{
			Email:   buyer.Email,
			Country: buyer.Country,
			ZipCode: buyer.ZipCode,
		},
		Purchase: purchaseDetails{
			Products: []purchaseProduct{{Name: product.Name, Price: product.Price}},
		},
		BrandID:         c.config.BrandID,
		SuccessRedirect: c.config.SuccessRedirect,
		FailureRedirect: c.config.FailureRedirect,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.NewGatewayError("create_purchase", 0, err)
	}

	endpoint := strings.TrimRight(c.config.APIURL, "/") + "/v1/purchases/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errs.NewGatewayError("create_purchase", 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Purchase creation request failed", map[string]any{
			"error": err.Error(),
		})
		return nil, errs.NewGatewayError("create_purchase", 0,
			fmt.Errorf("%w: %s", errs.ErrGatewayUnavailable, err.Error()))
	}
	defer closeBody(resp.Body)

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		c.logger.Warn("Acquirer rejected purchase creation", map[string]any{
			"status": resp.StatusCode,
		})
		return nil, errs.NewGatewayError("create_purchase", resp.StatusCode, errs.ErrGatewayRejected)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errs.NewGatewayError("create_purchase", resp.StatusCode, errs.ErrGatewayUnavailable)
	}

	var created createPurchaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, errs.NewGatewayError("create_purchase", resp.StatusCode,
			fmt.Errorf("%w: malformed response: %s", errs.ErrGatewayUnavailable, err.Error()))
	}
	if created.ID == "" || created.DirectPostURL == "" {
		return nil, errs.NewGatewayError("create_purchase", resp.StatusCode,
			fmt.Errorf("%w: incomplete purchase response", errs.ErrGatewayUnavailable))
	}

	c.logger.Info("Purchase created", map[string]any{
		"purchase_id": created.ID,
	})

	return &gatewayport.PurchaseHandle{
		PurchaseID:    created.ID,
		DirectPostURL: created.DirectPostURL,
	}, nil
}

// directPostRequest carries the raw card data for the s2s direct post.
// Instances of this type must never be logged.
type directPostRequest struct {
	CardNumber        string `json:"card_number"`
	CardholderName    string `json:"cardholder_name"`
	Expires           string `json:"expires"`
	CVC               string `json:"cvc"`
	RememberCard      string `json:"remember_card"`
	RemoteIP          string `json:"remote_ip"`
	UserAgent         string `json:"user_agent"`
	AcceptHeader      string `json:"accept_header"`
	Language          string `json:"language"`
	JavaEnabled       bool   `json:"java_enabled"`
	JavascriptEnabled bool   `json:"javascript_enabled"`
	ColorDepth        int    `json:"color_depth"`
	UTCOffset         int    `json:"utc_offset"`
	ScreenWidth       int    `json:"screen_width"`
	ScreenHeight      int    `json:"screen_height"`
}

// directPostResponse is the acquirer's verdict on the card submission
type directPostResponse struct {
	Status      string `json:"status"`
	Method      string `json:"Method"`
	PaReq       string `json:"PaReq"`
	MD          string `json:"MD"`
	URL         string `json:"URL"`
	CallbackURL string `json:"callback_url"`
}

// SubmitCardDirect posts the card data straight to the purchase's direct post
// URL. The call is never retried here: a duplicate submission could double
// charge the card.
func (c *Client) SubmitCardDirect(ctx context.Context, directPostURL string, card gatewayport.CardDetails, device gatewayport.DeviceFingerprint) (*gatewayport.DirectPostResult, error) {
	payload := directPostRequest{
		CardNumber:        card.CardNumber,
		CardholderName:    card.CardholderName,
		Expires:           card.Expires,
		CVC:               card.CVC,
		RememberCard:      card.RememberCard,
		RemoteIP:          device.RemoteIP,
		UserAgent:         device.UserAgent,
		AcceptHeader:      device.AcceptHeader,
		Language:          device.Language,
		JavaEnabled:       device.JavaEnabled,
		JavascriptEnabled: device.JavascriptEnabled,
		ColorDepth:        device.ColorDepth,
		UTCOffset:         device.UTCOffset,
		ScreenWidth:       device.ScreenWidth,
		ScreenHeight:      device.ScreenHeight,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.NewGatewayError("direct_post", 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, directPostURL+"?s2s=true", bytes.NewReader(body))
	if err != nil {
		return nil, errs.NewGatewayError("direct_post", 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.S2SToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Card data is deliberately absent from this log entry.
		c.logger.Error("Direct post request failed", map[string]any{
			"error": err.Error(),
		})
		return nil, errs.NewGatewayError("direct_post", 0,
			fmt.Errorf("%w: %s", errs.ErrGatewayUnavailable, err.Error()))
	}
	defer closeBody(resp.Body)

	if resp.StatusCode == http.StatusBadRequest {
		return nil, errs.NewGatewayError("direct_post", resp.StatusCode, errs.ErrInvalidCardDetails)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errs.NewGatewayError("direct_post", resp.StatusCode, errs.ErrGatewayUnavailable)
	}

	var verdict directPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, errs.NewGatewayError("direct_post", resp.StatusCode,
			fmt.Errorf("%w: malformed response: %s", errs.ErrGatewayUnavailable, err.Error()))
	}

	return interpretVerdict(&verdict)
}

// interpretVerdict maps the acquirer's direct post status onto the domain
// verdict set
func interpretVerdict(resp *directPostResponse) (*gatewayport.DirectPostResult, error) {
	switch gatewayport.Verdict(resp.Status) {
	case gatewayport.VerdictExecuted:
		return &gatewayport.DirectPostResult{Verdict: gatewayport.VerdictExecuted}, nil

	case gatewayport.VerdictChallengeRequired:
		method := entity.ChallengeMethodPost
		if strings.EqualFold(resp.Method, string(entity.ChallengeMethodGet)) {
			method = entity.ChallengeMethodGet
		}
		return &gatewayport.DirectPostResult{
			Verdict: gatewayport.VerdictChallengeRequired,
			Challenge: &entity.Challenge{
				Method:       method,
				RequestToken: resp.PaReq,
				ContextToken: resp.MD,
				RedirectURL:  resp.URL,
				CallbackURL:  resp.CallbackURL,
			},
		}, nil

	case gatewayport.VerdictPending:
		return &gatewayport.DirectPostResult{Verdict: gatewayport.VerdictPending}, nil

	default:
		return nil, errs.NewGatewayError("direct_post", 0,
			fmt.Errorf("%w: %s", errs.ErrUnexpectedVerdict, resp.Status))
	}
}

// SubmitChallengeResponse posts the form-encoded 3DS challenge response to
// the acquirer-supplied callback URL. The reply is only an acknowledgment;
// the acquirer may not have finalized the payment yet.
func (c *Client) SubmitChallengeResponse(ctx context.Context, callbackURL, contextToken, responseToken string) error {
	form := url.Values{}
	form.Set("PaRes", responseToken)
	form.Set("MD", contextToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errs.NewGatewayError("challenge_callback", 0, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Challenge callback request failed", map[string]any{
			"error": err.Error(),
		})
		return errs.NewGatewayError("challenge_callback", 0,
			fmt.Errorf("%w: %s", errs.ErrGatewayUnavailable, err.Error()))
	}
	defer closeBody(resp.Body)

	if resp.StatusCode == http.StatusBadRequest {
		return errs.NewGatewayError("challenge_callback", resp.StatusCode, errs.ErrInvalidChallengeResponse)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.NewGatewayError("challenge_callback", resp.StatusCode, errs.ErrGatewayUnavailable)
	}

	c.logger.Info("Challenge callback acknowledged", map[string]any{
		"status": resp.StatusCode,
	})
	return nil
}

// closeBody drains and closes a response body so the connection can be reused
func closeBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
