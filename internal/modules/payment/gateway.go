package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/emrekoc/butika-backend/internal/apperr"
	"github.com/emrekoc/butika-backend/internal/config"
)

// Gateway is the hosted-checkout-form provider interface. The merchant never
// sees card data; it opens a session, redirects the buyer, and verifies the
// token the provider posts back.
type Gateway interface {
	// CreateSession opens a hosted payment page for the given order.
	CreateSession(ctx context.Context, req *SessionRequest) (*Session, error)
	// RetrieveResult verifies the payment outcome for a callback token.
	RetrieveResult(ctx context.Context, token string) (*Result, error)
}

const (
	initializePath = "/payment/checkoutform/initialize"
	retrievePath   = "/payment/checkoutform/detail"

	requestTimeout = 20 * time.Second
)

type checkoutFormGateway struct {
	client      *resty.Client
	apiKey      string
	secretKey   string
	locale      string
	currency    string
	callbackURL string
}

// NewCheckoutFormGateway builds the HTTP adapter for the hosted checkout form.
func NewCheckoutFormGateway(cfg config.Payment) Gateway {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json")
	return &checkoutFormGateway{
		client:      client,
		apiKey:      cfg.APIKey,
		secretKey:   cfg.SecretKey,
		locale:      cfg.Locale,
		currency:    cfg.Currency,
		callbackURL: cfg.CallbackURL,
	}
}

// ── wire format ───────────────────────────────────────────────────────────────

type wireBuyer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Phone   string `json:"gsmNumber"`
	Address string `json:"registrationAddress"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type wireBasketItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category1"`
	ItemType string `json:"itemType"`
	Price    string `json:"price"`
}

type initializeRequest struct {
	Locale         string           `json:"locale"`
	ConversationID string           `json:"conversationId"`
	Price          string           `json:"price"`
	PaidPrice      string           `json:"paidPrice"`
	Currency       string           `json:"currency"`
	BasketID       string           `json:"basketId"`
	CallbackURL    string           `json:"callbackUrl"`
	Buyer          wireBuyer        `json:"buyer"`
	BasketItems    []wireBasketItem `json:"basketItems"`
}

type initializeResponse struct {
	Status         string `json:"status"`
	Token          string `json:"token"`
	PaymentPageURL string `json:"paymentPageUrl"`
	ErrorMessage   string `json:"errorMessage"`
}

type retrieveRequest struct {
	Locale string `json:"locale"`
	Token  string `json:"token"`
}

type retrieveResponse struct {
	Status         string `json:"status"`
	PaymentStatus  string `json:"paymentStatus"`
	ConversationID string `json:"conversationId"`
	PaymentID      string `json:"paymentId"`
	ErrorMessage   string `json:"errorMessage"`
}

// ── operations ────────────────────────────────────────────────────────────────

func (g *checkoutFormGateway) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	items := make([]wireBasketItem, 0, len(req.BasketItems))
	for _, it := range req.BasketItems {
		items = append(items, wireBasketItem{
			ID:       it.ID,
			Name:     it.Name,
			Category: it.Category,
			ItemType: "PHYSICAL",
			Price:    it.Price.StringFixed(2),
		})
	}

	body := initializeRequest{
		Locale:         g.locale,
		ConversationID: req.ConversationID,
		Price:          req.Price.StringFixed(2),
		PaidPrice:      req.Price.StringFixed(2),
		Currency:       g.currency,
		BasketID:       req.ConversationID,
		CallbackURL:    g.callbackURL,
		Buyer: wireBuyer{
			ID:      req.Buyer.ID,
			Name:    req.Buyer.Name,
			Surname: req.Buyer.Surname,
			Email:   req.Buyer.Email,
			Phone:   req.Buyer.Phone,
			Address: req.Buyer.Address,
			City:    req.Buyer.City,
			ZipCode: req.Buyer.ZipCode,
			Country: req.Buyer.Country,
		},
		BasketItems: items,
	}

	var out initializeResponse
	if err := g.post(ctx, initializePath, body, &out); err != nil {
		return nil, err
	}
	if out.Status != "success" || out.Token == "" {
		msg := out.ErrorMessage
		if msg == "" {
			msg = "session was not created"
		}
		return nil, fmt.Errorf("initialize checkout form: %s: %w", msg, apperr.ErrGateway)
	}
	return &Session{Token: out.Token, PaymentPageURL: out.PaymentPageURL}, nil
}

func (g *checkoutFormGateway) RetrieveResult(ctx context.Context, token string) (*Result, error) {
	var out retrieveResponse
	if err := g.post(ctx, retrievePath, retrieveRequest{Locale: g.locale, Token: token}, &out); err != nil {
		return nil, err
	}
	return &Result{
		Status:         out.Status,
		PaymentStatus:  out.PaymentStatus,
		ConversationID: out.ConversationID,
		PaymentID:      out.PaymentID,
		ErrorMessage:   out.ErrorMessage,
	}, nil
}

func (g *checkoutFormGateway) post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", g.authHeader(path, raw)).
		SetBody(raw).
		SetResult(out).
		Post(path)
	if err != nil {
		return fmt.Errorf("call %s: %v: %w", path, err, apperr.ErrGateway)
	}
	if resp.IsError() {
		return fmt.Errorf("call %s: http %d: %w", path, resp.StatusCode(), apperr.ErrGateway)
	}
	return nil
}

// authHeader signs randomKey + path + body with the merchant secret.
func (g *checkoutFormGateway) authHeader(path string, body []byte) string {
	randomKey := strconv.FormatInt(time.Now().UnixNano(), 10)
	mac := hmac.New(sha256.New, []byte(g.secretKey))
	mac.Write([]byte(randomKey))
	mac.Write([]byte(path))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	payload := fmt.Sprintf("apiKey:%s&randomKey:%s&signature:%s", g.apiKey, randomKey, signature)
	return "IYZWSv2 " + base64.StdEncoding.EncodeToString([]byte(payload))
}
