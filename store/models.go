package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Shop is one Shopify store. Plan and PlanStatus hold the string forms of
// plan.Code and billing.Status.
type Shop struct {
	ID            uuid.UUID
	Domain        string
	ShopifyShopID string

	Plan            string
	PlanStatus      string
	PlanManaged     bool
	PlanTrialEndsAt *time.Time
	PlanGraceEndsAt *time.Time
	PlanRenewsAt    *time.Time
	PlanActivatedAt *time.Time

	BillingSubscriptionID string
	BillingCancelledAt    *time.Time
	BillingLastSyncAt     *time.Time
	BillingLastSyncError  string

	ExtraFreeVersions      int
	VersionLimitPromptedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy that shares no pointers with s.
func (s Shop) Clone() Shop {
	s.PlanTrialEndsAt = cloneTime(s.PlanTrialEndsAt)
	s.PlanGraceEndsAt = cloneTime(s.PlanGraceEndsAt)
	s.PlanRenewsAt = cloneTime(s.PlanRenewsAt)
	s.PlanActivatedAt = cloneTime(s.PlanActivatedAt)
	s.BillingCancelledAt = cloneTime(s.BillingCancelledAt)
	s.BillingLastSyncAt = cloneTime(s.BillingLastSyncAt)
	s.VersionLimitPromptedAt = cloneTime(s.VersionLimitPromptedAt)
	return s
}

type Note struct {
	ID        uuid.UUID
	ShopID    uuid.UUID
	FolderID  *uuid.UUID
	Title     string
	Content   string
	Tags      []string
	PinnedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n Note) Clone() Note {
	if n.FolderID != nil {
		id := *n.FolderID
		n.FolderID = &id
	}
	if n.Tags != nil {
		n.Tags = append([]string(nil), n.Tags...)
	}
	n.PinnedAt = cloneTime(n.PinnedAt)
	return n
}

// SaveType tells manual saves from background autosaves.
type SaveType string

const (
	SaveTypeManual SaveType = "MANUAL"
	SaveTypeAuto   SaveType = "AUTO"
)

func (t SaveType) Valid() bool {
	return t == SaveTypeManual || t == SaveTypeAuto
}

// NoteVersion is an immutable snapshot of a note. Only FreeVisible and
// VersionTitle change after insert.
type NoteVersion struct {
	ID           uuid.UUID
	NoteID       uuid.UUID
	Title        string
	Content      string
	VersionTitle string
	Snapshot     json.RawMessage
	SaveType     SaveType
	FreeVisible  bool
	CreatedAt    time.Time
}

func (v NoteVersion) Clone() NoteVersion {
	if v.Snapshot != nil {
		v.Snapshot = append(json.RawMessage(nil), v.Snapshot...)
	}
	return v
}

// Folder is used for both note folders and contact folders.
type Folder struct {
	ID        uuid.UUID
	ShopID    uuid.UUID
	Name      string
	Position  int
	Icon      string
	IconColor string
	CreatedAt time.Time
}

type ContactKind string

const (
	ContactPerson   ContactKind = "PERSON"
	ContactBusiness ContactKind = "BUSINESS"
)

type Contact struct {
	ID        uuid.UUID
	ShopID    uuid.UUID
	FolderID  *uuid.UUID
	Kind      ContactKind
	FirstName string
	LastName  string
	Company   string
	Email     string
	Phone     string
	PinnedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the kind-specific required fields.
func (c Contact) Validate() error {
	switch c.Kind {
	case ContactPerson:
		if c.FirstName == "" && c.LastName == "" {
			return ErrInvalidArgument
		}
	case ContactBusiness:
		if c.Company == "" {
			return ErrInvalidArgument
		}
	default:
		return ErrInvalidArgument
	}
	return nil
}

func (c Contact) Clone() Contact {
	if c.FolderID != nil {
		id := *c.FolderID
		c.FolderID = &id
	}
	c.PinnedAt = cloneTime(c.PinnedAt)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
