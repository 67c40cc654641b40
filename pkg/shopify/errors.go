package shopify

import "errors"

var (
	ErrMissingSecret      = errors.New("shopify: api secret is required")
	ErrMissingSignature   = errors.New("shopify: webhook signature is missing")
	ErrInvalidSignature   = errors.New("shopify: webhook signature mismatch")
	ErrInvalidShopDomain  = errors.New("shopify: invalid shop domain")
	ErrInvalidSession     = errors.New("shopify: invalid session token")
	ErrShopNotIdentified  = errors.New("shopify: shop not identified")
	ErrAdminRequestFailed = errors.New("shopify: admin api request failed")
)
