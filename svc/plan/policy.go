package plan

import (
	"maps"
	"slices"
)

// Policy is one row of the plan table.
type Policy struct {
	Code        Code
	Title       string
	Description string
	Limits      map[Resource]int64
	Features    []Feature
}

// Limit returns the ceiling for r. Resources absent from the policy are not
// available and report 0.
func (p Policy) Limit(r Resource) int64 {
	if l, ok := p.Limits[r]; ok {
		return l
	}
	return 0
}

func (p Policy) IsUnlimited(r Resource) bool {
	return p.Limit(r) == Unlimited
}

func (p Policy) HasFeature(f Feature) bool {
	return slices.Contains(p.Features, f)
}

func (p Policy) clone() Policy {
	p.Limits = maps.Clone(p.Limits)
	p.Features = slices.Clone(p.Features)
	return p
}

// Default limits of the free tier.
const (
	DefaultFreeNotes    int64 = 25
	DefaultFreeFolders  int64 = 3
	DefaultFreeVersions int64 = 5
)

// DefaultPolicies returns the built-in plan table.
func DefaultPolicies() map[Code]Policy {
	unlimited := func() map[Resource]int64 {
		return map[Resource]int64{
			ResourceNotes:    Unlimited,
			ResourceFolders:  Unlimited,
			ResourceContacts: Unlimited,
			ResourceMentions: Unlimited,
			ResourceVersions: Unlimited,
		}
	}
	paid := []Feature{FeatureContacts, FeatureNoteTags}

	return map[Code]Policy{
		CodeFree: {
			Code:        CodeFree,
			Title:       "Free",
			Description: "Up to 25 notes, 3 folders and 5 versions per note.",
			Limits: map[Resource]int64{
				ResourceNotes:    DefaultFreeNotes,
				ResourceFolders:  DefaultFreeFolders,
				ResourceContacts: 0,
				ResourceMentions: 0,
				ResourceVersions: DefaultFreeVersions,
			},
		},
		CodeBasic: {
			Code:        CodeBasic,
			Title:       "Basic",
			Description: "Unlimited notes, folders and version history.",
			Limits:      unlimited(),
			Features:    slices.Clone(paid),
		},
		CodePro: {
			Code:        CodePro,
			Title:       "Pro",
			Description: "Everything in Basic plus contacts, mentions and tags.",
			Limits:      unlimited(),
			Features:    slices.Clone(paid),
		},
		CodeEnterprise: {
			Code:        CodeEnterprise,
			Title:       "Enterprise",
			Description: "Pro for large teams.",
			Limits:      unlimited(),
			Features:    slices.Clone(paid),
		},
	}
}
