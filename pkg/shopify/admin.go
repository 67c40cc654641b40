package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const activeSubscriptionsQuery = `query ActiveSubscriptions {
  currentAppInstallation {
    activeSubscriptions {
      id
      name
      status
      test
      trialDays
      createdAt
      currentPeriodEnd
    }
  }
}`

// AdminClient calls the Shopify Admin GraphQL API.
type AdminClient struct {
	client   *resty.Client
	version  string
	endpoint func(shop, version string) string
}

// AdminOption configures an AdminClient.
type AdminOption func(*AdminClient)

// WithEndpoint overrides how the GraphQL URL is built for a shop.
func WithEndpoint(fn func(shop, version string) string) AdminOption {
	return func(c *AdminClient) {
		if fn != nil {
			c.endpoint = fn
		}
	}
}

// WithRestyClient replaces the underlying HTTP client.
func WithRestyClient(rc *resty.Client) AdminOption {
	return func(c *AdminClient) {
		if rc != nil {
			c.client = rc
		}
	}
}

func NewAdminClient(cfg Config, opts ...AdminOption) *AdminClient {
	c := &AdminClient{
		client: resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(cfg.AdminTimeout),
		version: cfg.AdminAPIVersion,
		endpoint: func(shop, version string) string {
			return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, version)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type activeSubscriptionsResponse struct {
	Data struct {
		CurrentAppInstallation struct {
			ActiveSubscriptions []map[string]any `json:"activeSubscriptions"`
		} `json:"currentAppInstallation"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// ActiveSubscriptions returns the app's active subscriptions for shop as raw
// JSON objects, ready for billing payload normalization.
func (c *AdminClient) ActiveSubscriptions(ctx context.Context, shop, accessToken string) ([]map[string]any, error) {
	domain, err := NormalizeShopDomain(shop)
	if err != nil {
		return nil, err
	}

	var out activeSubscriptionsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Shopify-Access-Token", accessToken).
		SetBody(graphQLRequest{Query: activeSubscriptionsQuery}).
		SetResult(&out).
		Post(c.endpoint(domain, c.version))
	if err != nil {
		return nil, errors.Join(ErrAdminRequestFailed, err)
	}
	if resp.IsError() {
		return nil, errors.Join(ErrAdminRequestFailed, fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, errors.Join(ErrAdminRequestFailed, errors.New(strings.Join(msgs, "; ")))
	}

	return out.Data.CurrentAppInstallation.ActiveSubscriptions, nil
}
