package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Webhook headers set by Shopify.
const (
	HeaderHmac       = "X-Shopify-Hmac-Sha256"
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

// SignWebhook returns the base64 HMAC-SHA256 of body, as Shopify sends it in
// X-Shopify-Hmac-Sha256.
func SignWebhook(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// VerifyWebhook checks signature against the raw request body in constant
// time.
func VerifyWebhook(secret string, body []byte, signature string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if signature == "" {
		return ErrMissingSignature
	}

	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	if !hmac.Equal(h.Sum(nil), got) {
		return ErrInvalidSignature
	}
	return nil
}
