package shopify

import (
	"net/url"
	"regexp"
	"strings"
)

var shopDomainRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// NormalizeShopDomain accepts a bare domain or a URL such as the session
// token "dest" claim and returns the lower-cased *.myshopify.com host.
func NormalizeShopDomain(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", ErrInvalidShopDomain
		}
		s = u.Hostname()
	}
	s = strings.TrimSuffix(s, "/")
	if !shopDomainRe.MatchString(s) {
		return "", ErrInvalidShopDomain
	}
	return s, nil
}
