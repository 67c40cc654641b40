package plan

import (
	"context"
	"errors"
	"fmt"
)

// Catalog is the validated, immutable plan table.
type Catalog struct {
	policies map[Code]Policy
}

// NewCatalog loads and validates policies from src. The FREE plan must be
// present since every unknown code resolves to it.
func NewCatalog(ctx context.Context, src Source) (*Catalog, error) {
	policies, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if err := validatePolicies(policies); err != nil {
		return nil, err
	}
	return &Catalog{policies: policies}, nil
}

// MustCatalog is NewCatalog over the built-in defaults.
func MustCatalog() *Catalog {
	c, err := NewCatalog(context.Background(), NewInMemSource())
	if err != nil {
		panic(err)
	}
	return c
}

func validatePolicies(policies map[Code]Policy) error {
	if _, ok := policies[CodeFree]; !ok {
		return errors.Join(ErrInvalidPlanConfiguration, errors.New("FREE plan is missing"))
	}
	for code, p := range policies {
		if p.Code != code {
			return errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("plan %s is registered as %s", p.Code, code))
		}
		for res, limit := range p.Limits {
			if limit < Unlimited {
				return errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("plan %s: %s limit %d", code, res, limit))
			}
		}
	}
	return nil
}

// Policy returns a copy of the policy for code. Unknown codes get FREE.
func (c *Catalog) Policy(code Code) Policy {
	if p, ok := c.policies[NormalizeCode(string(code))]; ok {
		return p.clone()
	}
	return c.policies[CodeFree].clone()
}

func (c *Catalog) Limit(code Code, r Resource) int64 {
	return c.Policy(code).Limit(r)
}

func (c *Catalog) HasFeature(code Code, f Feature) bool {
	return c.Policy(code).HasFeature(f)
}
