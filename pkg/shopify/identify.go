package shopify

import (
	"net/http"
	"strings"
	"time"
)

// Identifier extracts the shop domain from a request. An empty domain with a
// nil error means the identifier does not apply.
type Identifier interface {
	Identify(r *http.Request) (string, error)
}

// IdentifierFunc adapts a function to Identifier.
type IdentifierFunc func(r *http.Request) (string, error)

func (f IdentifierFunc) Identify(r *http.Request) (string, error) { return f(r) }

// SessionTokenIdentifier reads "Authorization: Bearer <session token>".
type SessionTokenIdentifier struct {
	APIKey string
	Secret string
	Leeway time.Duration
}

func (i SessionTokenIdentifier) Identify(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", nil
	}
	return ParseSessionToken(strings.TrimSpace(token), i.APIKey, i.Secret, i.Leeway)
}

// HeaderIdentifier trusts X-Shopify-Shop-Domain. Only use it behind a proxy
// that has already authenticated the shop.
type HeaderIdentifier struct{}

func (HeaderIdentifier) Identify(r *http.Request) (string, error) {
	v := r.Header.Get(HeaderShopDomain)
	if v == "" {
		return "", nil
	}
	return NormalizeShopDomain(v)
}

// Identifiers tries each identifier in order and returns the first match.
// Errors stop the chain.
type Identifiers []Identifier

func (c Identifiers) Identify(r *http.Request) (string, error) {
	for _, id := range c {
		domain, err := id.Identify(r)
		if err != nil {
			return "", err
		}
		if domain != "" {
			return domain, nil
		}
	}
	return "", ErrShopNotIdentified
}

// NewIdentifier builds the identifier chain described by cfg.
func NewIdentifier(cfg Config) Identifier {
	chain := Identifiers{SessionTokenIdentifier{APIKey: cfg.APIKey, Secret: cfg.APISecret, Leeway: 5 * time.Second}}
	if cfg.TrustShopHeader {
		chain = append(chain, HeaderIdentifier{})
	}
	return chain
}
