package store_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/shopnotes/store"
)

func TestContactValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		contact store.Contact
		valid   bool
	}{
		{"person with first name", store.Contact{Kind: store.ContactPerson, FirstName: "Ada"}, true},
		{"person with last name", store.Contact{Kind: store.ContactPerson, LastName: "Lovelace"}, true},
		{"person without names", store.Contact{Kind: store.ContactPerson, Company: "ACME"}, false},
		{"business with company", store.Contact{Kind: store.ContactBusiness, Company: "ACME"}, true},
		{"business without company", store.Contact{Kind: store.ContactBusiness, FirstName: "Ada"}, false},
		{"unknown kind", store.Contact{Kind: "ROBOT", FirstName: "R2"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.contact.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, store.ErrInvalidArgument)
			}
		})
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	t.Parallel()

	now := time.Now()
	shop := store.Shop{PlanGraceEndsAt: &now}
	cp := shop.Clone()
	*cp.PlanGraceEndsAt = now.Add(time.Hour)
	assert.Equal(t, now, *shop.PlanGraceEndsAt)

	folder := uuid.New()
	note := store.Note{FolderID: &folder, Tags: []string{"a"}}
	nc := note.Clone()
	nc.Tags[0] = "b"
	*nc.FolderID = uuid.New()
	assert.Equal(t, "a", note.Tags[0])
	assert.Equal(t, folder, *note.FolderID)

	v := store.NoteVersion{Snapshot: json.RawMessage(`{"a":1}`)}
	vc := v.Clone()
	vc.Snapshot[2] = 'b'
	assert.JSONEq(t, `{"a":1}`, string(v.Snapshot))
}

func TestSaveTypeValid(t *testing.T) {
	t.Parallel()
	assert.True(t, store.SaveTypeAuto.Valid())
	assert.True(t, store.SaveTypeManual.Valid())
	assert.False(t, store.SaveType("auto").Valid())
}
