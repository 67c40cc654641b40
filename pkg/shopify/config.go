package shopify

import "time"

type Config struct {
	APIKey          string        `env:"SHOPIFY_API_KEY"`                                // APIKey is the app client ID, checked against the session token audience.
	APISecret       string        `env:"SHOPIFY_API_SECRET,required"`                    // APISecret signs webhooks and session tokens.
	TrustShopHeader bool          `env:"SHOPIFY_TRUST_SHOP_HEADER" envDefault:"false"`   // TrustShopHeader accepts X-Shopify-Shop-Domain as identity, for deployments behind a trusted proxy.
	AdminAPIVersion string        `env:"SHOPIFY_ADMIN_API_VERSION" envDefault:"2025-07"` // AdminAPIVersion selects the Admin GraphQL API version.
	AdminTimeout    time.Duration `env:"SHOPIFY_ADMIN_TIMEOUT" envDefault:"10s"`         // AdminTimeout bounds Admin API calls.
}
