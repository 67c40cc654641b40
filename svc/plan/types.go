package plan

import "strings"

// Code identifies a plan tier.
type Code string

const (
	CodeFree       Code = "FREE"
	CodeBasic      Code = "BASIC"
	CodePro        Code = "PRO"
	CodeEnterprise Code = "ENTERPRISE"
)

// NormalizeCode maps any stored or legacy value onto a known code. Unknown
// values fall back to FREE.
func NormalizeCode(raw string) Code {
	switch Code(strings.ToUpper(strings.TrimSpace(raw))) {
	case CodeBasic:
		return CodeBasic
	case CodePro:
		return CodePro
	case CodeEnterprise:
		return CodeEnterprise
	default:
		return CodeFree
	}
}

// IsPaid reports whether c is a billing-backed tier.
func (c Code) IsPaid() bool {
	return NormalizeCode(string(c)) != CodeFree
}

func (c Code) String() string { return string(c) }

// Resource is a countable per-shop resource.
type Resource string

const (
	ResourceNotes    Resource = "notes"
	ResourceFolders  Resource = "folders"
	ResourceContacts Resource = "contacts"
	ResourceMentions Resource = "mentions"
	// ResourceVersions is limited per note, not per shop.
	ResourceVersions Resource = "versions"
)

// Resources lists every resource in display order.
var Resources = []Resource{
	ResourceNotes,
	ResourceFolders,
	ResourceContacts,
	ResourceMentions,
	ResourceVersions,
}

// ParseResource validates a resource name.
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Resources {
		if r == known {
			return r, nil
		}
	}
	return "", ErrInvalidResource
}

// PerNote reports whether the limit applies to each note rather than the shop.
func (r Resource) PerNote() bool {
	return r == ResourceVersions
}

// Feature is a plan feature flag.
type Feature string

const (
	FeatureContacts Feature = "contacts"
	FeatureNoteTags Feature = "note_tags"
)

// Unlimited marks a resource without a ceiling.
const Unlimited int64 = -1

// UsageInfo is the current quantity of a resource and its ceiling.
type UsageInfo struct {
	Quantity int64 `json:"quantity"`
	Limit    int64 `json:"limit"`
}
