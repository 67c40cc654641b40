package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/shopnotes/api"
	"github.com/dmitrymomot/shopnotes/pkg/httpserver"
	"github.com/dmitrymomot/shopnotes/pkg/shopify"
	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/store/memstore"
	"github.com/dmitrymomot/shopnotes/svc/billing"
	"github.com/dmitrymomot/shopnotes/svc/plan"
	"github.com/dmitrymomot/shopnotes/svc/plancontext"
	"github.com/dmitrymomot/shopnotes/svc/versions"
)

const domain = "acme.myshopify.com"

type webhookFunc func(ctx context.Context, h http.Header, body []byte) (billing.Outcome, error)

func (f webhookFunc) Process(ctx context.Context, h http.Header, body []byte) (billing.Outcome, error) {
	return f(ctx, h, body)
}

type testEnv struct {
	st   *memstore.Store
	shop *store.Shop
	h    http.Handler
}

func newEnv(t *testing.T, code plan.Code, opts ...api.Option) *testEnv {
	t.Helper()
	st := memstore.New()
	ctx := context.Background()

	shop, err := st.Shops().UpsertByDomain(ctx, domain)
	require.NoError(t, err)
	if code != plan.CodeFree {
		shop.Plan = string(code)
		shop.PlanStatus = string(billing.StatusActive)
		shop.PlanManaged = true
		require.NoError(t, st.Shops().Update(ctx, shop))
	}

	catalog := plan.MustCatalog()
	a := api.New(st,
		plan.NewGuard(catalog, st),
		versions.NewService(st),
		plancontext.NewResolver(st.Shops(), catalog),
		shopify.HeaderIdentifier{},
		opts...,
	)
	return &testEnv{st: st, shop: shop, h: a.Router()}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  json.RawMessage `json:"meta"`
	Error *struct {
		Code        string `json:"code"`
		Message     string `json:"message"`
		UpgradeHint bool   `json:"upgradeHint"`
		Reason      string `json:"reason"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(shopify.HeaderShopDomain, domain)
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (e *testEnv) createNote(t *testing.T, title string) uuid.UUID {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/notes", map[string]any{"title": title})
	require.Equal(t, http.StatusCreated, status)
	var n struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &n))
	return n.ID
}

func TestPlanEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("snapshot with usage", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, plan.CodeFree)
		e.createNote(t, "one")

		status, env := e.do(t, http.MethodGet, "/api/plan", nil)
		require.Equal(t, http.StatusOK, status)

		var snap plan.Snapshot
		require.NoError(t, json.Unmarshal(env.Data, &snap))
		assert.Equal(t, plan.CodeFree, snap.Code)
		assert.EqualValues(t, 1, snap.Usage[plan.ResourceNotes].Quantity)
		assert.EqualValues(t, 25, snap.Usage[plan.ResourceNotes].Limit)

		var meta struct {
			VersionLimit int64 `json:"versionLimit"`
		}
		require.NoError(t, json.Unmarshal(env.Meta, &meta))
		assert.EqualValues(t, 5, meta.VersionLimit)
	})

	t.Run("unlimited is serialized as -1", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, plan.CodePro)
		_, env := e.do(t, http.MethodGet, "/api/plan", nil)
		var snap plan.Snapshot
		require.NoError(t, json.Unmarshal(env.Data, &snap))
		assert.Equal(t, plan.Unlimited, snap.Limits[plan.ResourceNotes])
	})

	t.Run("usage verdicts", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, plan.CodeFree)

		status, _ := e.do(t, http.MethodGet, "/api/plan/usage/notes", nil)
		assert.Equal(t, http.StatusOK, status)

		status, env := e.do(t, http.MethodGet, "/api/plan/usage/contacts", nil)
		assert.Equal(t, http.StatusForbidden, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, plan.AccessDeniedCode, env.Error.Code)
		assert.Equal(t, string(plan.ReasonPlanRestricted), env.Error.Reason)

		status, _ = e.do(t, http.MethodGet, "/api/plan/usage/versions", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("unidentified shop", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, plan.CodeFree)
		rec := httptest.NewRecorder()
		e.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plan", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestNoteQuotaAndFeatures(t *testing.T) {
	t.Parallel()

	t.Run("free note limit", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, plan.CodeFree)
		for i := range 25 {
			require.NoError(t, e.st.Notes().Create(context.Background(), &store.Note{ShopID: e.shop.ID, Title: fmt.Sprint(i)}))
		}

		status, env := e.do(t, http.MethodPost, "/api/notes", map[string]any{"title": "one too many"})
		assert.Equal(t, http.StatusForbidden, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "LIMIT_NOTES", env.Error.Code)
		assert.True(t, env.Error.UpgradeHint)
	})

	t.Run("tags need a paid plan", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, plan.CodeFree)
		status, env := e.do(t, http.MethodPost, "/api/notes", map[string]any{"title": "t", "tags": []string{"vip"}})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "FEATURE_NOTE_TAGS_DISABLED", env.Error.Code)

		paid := newEnv(t, plan.CodeBasic)
		status, env = paid.do(t, http.MethodPost, "/api/notes", map[string]any{
			"title": "t",
			"tags":  []string{" vip ", "caf\u00e9", "cafe\u0301", "vip"},
		})
		require.Equal(t, http.StatusCreated, status)
		var n struct {
			Tags []string `json:"tags"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &n))
		assert.Equal(t, []string{"vip", "caf\u00e9"}, n.Tags)
	})

	t.Run("contacts need a paid plan", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, plan.CodeFree)
		status, env := e.do(t, http.MethodGet, "/api/contacts", nil)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "FEATURE_CONTACTS_DISABLED", env.Error.Code)
	})

	t.Run("unknown note", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, plan.CodeFree)
		status, env := e.do(t, http.MethodGet, "/api/notes/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "not_found", env.Error.Code)
	})
}

func TestVersionWindowOverHTTP(t *testing.T) {
	t.Parallel()
	e := newEnv(t, plan.CodeFree)
	id := e.createNote(t, "draft")
	path := "/api/notes/" + id.String()

	save := func(saveType string, content string) (int, envelope) {
		return e.do(t, http.MethodPut, path, map[string]any{"title": "draft", "content": content, "saveType": saveType})
	}

	for i := range 5 {
		status, _ := save("MANUAL", fmt.Sprint("m", i))
		require.Equal(t, http.StatusOK, status)
	}

	status, env := save("MANUAL", "m5")
	assert.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UPGRADE_REQUIRED", env.Error.Code)

	status, env = save("AUTO", "a0")
	require.Equal(t, http.StatusOK, status)
	var meta struct {
		Save struct {
			Version     json.RawMessage `json:"version"`
			InlineAlert string          `json:"inlineAlert"`
		} `json:"save"`
		Versions versions.Meta `json:"versions"`
	}
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	assert.Equal(t, string(versions.AlertNoRoomDueToManuals), meta.Save.InlineAlert)
	assert.Equal(t, "null", string(meta.Save.Version))
	assert.True(t, meta.Versions.HasAllManualVisible)
	assert.EqualValues(t, 5, meta.Versions.VisibleCount)

	status, env = e.do(t, http.MethodGet, path+"/versions", nil)
	require.Equal(t, http.StatusOK, status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 5)

	status, _ = save("DRAFT", "x")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestRevertOverHTTP(t *testing.T) {
	t.Parallel()
	e := newEnv(t, plan.CodePro)
	id := e.createNote(t, "doc")
	path := "/api/notes/" + id.String()

	_, env := e.do(t, http.MethodPut, path, map[string]any{"title": "doc", "content": "first", "saveType": "MANUAL"})
	var meta struct {
		Save struct {
			Version struct {
				ID uuid.UUID `json:"id"`
			} `json:"version"`
		} `json:"save"`
	}
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	first := meta.Save.Version.ID

	status, _ := e.do(t, http.MethodPut, path, map[string]any{"title": "doc", "content": "second", "saveType": "MANUAL"})
	require.Equal(t, http.StatusOK, status)

	status, env = e.do(t, http.MethodPost, path+"/versions/"+first.String()+"/revert", nil)
	require.Equal(t, http.StatusOK, status)
	var res struct {
		Note struct {
			Content string `json:"content"`
		} `json:"note"`
		Checkpoint struct {
			Version struct {
				Content      string `json:"content"`
				VersionTitle string `json:"versionTitle"`
				SaveType     string `json:"saveType"`
			} `json:"version"`
		} `json:"checkpoint"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "first", res.Note.Content)
	assert.Equal(t, "second", res.Checkpoint.Version.Content)
	assert.Equal(t, "AUTO", res.Checkpoint.Version.SaveType)
	assert.Contains(t, res.Checkpoint.Version.VersionTitle, "Auto-saved before revert - ")

	status, _ = e.do(t, http.MethodPatch, path+"/versions/"+first.String(), map[string]any{"title": "  Launch copy "})
	assert.Equal(t, http.StatusNoContent, status)
	v, err := e.st.Versions().Get(context.Background(), id, first)
	require.NoError(t, err)
	assert.Equal(t, "Launch copy", v.VersionTitle)
	assert.Equal(t, "first", v.Content)

	status, _ = e.do(t, http.MethodPost, path+"/versions/"+first.String()+"/revert?checkpoint=false", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestFolders(t *testing.T) {
	t.Parallel()
	e := newEnv(t, plan.CodeFree)

	status, env := e.do(t, http.MethodPost, "/api/folders", map[string]any{"name": "Ops"})
	require.Equal(t, http.StatusCreated, status)
	var f struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &f))

	status, env = e.do(t, http.MethodPost, "/api/notes", map[string]any{"title": "in folder", "folderId": f.ID})
	require.Equal(t, http.StatusCreated, status)
	var n struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &n))

	status, _ = e.do(t, http.MethodDelete, "/api/folders/"+f.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, status)

	got, err := e.st.Notes().Get(context.Background(), e.shop.ID, n.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FolderID)

	status, env = e.do(t, http.MethodPost, "/api/folders", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "validation_error", env.Error.Code)

	for _, name := range []string{"a", "b", "c"} {
		status, _ = e.do(t, http.MethodPost, "/api/folders", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, status)
	}
	status, env = e.do(t, http.MethodPost, "/api/folders", map[string]any{"name": "d"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "LIMIT_FOLDERS", env.Error.Code)
}

func TestFolderFromAnotherShop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t, plan.CodePro)

	other, err := e.st.Shops().UpsertByDomain(ctx, "other.myshopify.com")
	require.NoError(t, err)
	foreign := &store.Folder{ShopID: other.ID, Name: "Theirs"}
	require.NoError(t, e.st.Folders().Create(ctx, foreign))
	foreignContacts := &store.Folder{ShopID: other.ID, Name: "Their vendors"}
	require.NoError(t, e.st.ContactFolders().Create(ctx, foreignContacts))

	t.Run("note create", func(t *testing.T) {
		status, env := e.do(t, http.MethodPost, "/api/notes", map[string]any{"title": "x", "folderId": foreign.ID})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "not_found", env.Error.Code)
	})

	t.Run("note update", func(t *testing.T) {
		id := e.createNote(t, "mine")
		status, env := e.do(t, http.MethodPut, "/api/notes/"+id.String(), map[string]any{"title": "mine", "folderId": foreign.ID})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "not_found", env.Error.Code)

		got, err := e.st.Notes().Get(ctx, e.shop.ID, id)
		require.NoError(t, err)
		assert.Nil(t, got.FolderID)
	})

	t.Run("contact create", func(t *testing.T) {
		status, env := e.do(t, http.MethodPost, "/api/contacts", map[string]any{
			"kind": "PERSON", "firstName": "Ada", "folderId": foreignContacts.ID,
		})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "not_found", env.Error.Code)
	})

	t.Run("note folder of the other kind", func(t *testing.T) {
		status, _ := e.do(t, http.MethodPost, "/api/contact-folders", map[string]any{"name": "Vendors"})
		require.Equal(t, http.StatusCreated, status)
		folders, err := e.st.ContactFolders().List(ctx, e.shop.ID)
		require.NoError(t, err)
		require.Len(t, folders, 1)

		status, _ = e.do(t, http.MethodPost, "/api/notes", map[string]any{"title": "x", "folderId": folders[0].ID})
		assert.Equal(t, http.StatusNotFound, status)
	})

	n, err := e.st.Count(ctx, other.ID, store.ResourceNotes)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestContactsOnPaidPlan(t *testing.T) {
	t.Parallel()
	e := newEnv(t, plan.CodePro)

	status, env := e.do(t, http.MethodPost, "/api/contacts", map[string]any{"kind": "business"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "validation_error", env.Error.Code)

	status, env = e.do(t, http.MethodPost, "/api/contacts", map[string]any{"kind": "PERSON", "firstName": "Ada"})
	require.Equal(t, http.StatusCreated, status)
	var c struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &c))

	status, _ = e.do(t, http.MethodPost, "/api/notes", map[string]any{"title": "call Ada", "contactIds": []uuid.UUID{c.ID}})
	require.Equal(t, http.StatusCreated, status)
	n, err := e.st.Count(context.Background(), e.shop.ID, store.ResourceMentions)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	status, _ = e.do(t, http.MethodPost, "/api/contact-folders", map[string]any{"name": "Suppliers"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestWebhookRoute(t *testing.T) {
	t.Parallel()

	post := func(h http.Handler) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/shopify", bytes.NewReader([]byte(`{}`))))
		return rec
	}

	t.Run("bad signature", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, plan.CodeFree, api.WithWebhooks(webhookFunc(func(context.Context, http.Header, []byte) (billing.Outcome, error) {
			return "", errors.Join(billing.ErrInvalidWebhook, shopify.ErrInvalidSignature)
		})))
		assert.Equal(t, http.StatusUnauthorized, post(e.h).Code)
	})

	t.Run("failed sync still acknowledged", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, plan.CodeFree, api.WithWebhooks(webhookFunc(func(context.Context, http.Header, []byte) (billing.Outcome, error) {
			return billing.OutcomeFailed, nil
		})))
		rec := post(e.h)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"outcome":"failed"`)
	})

	t.Run("bad payload is ignored", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, plan.CodeFree, api.WithWebhooks(webhookFunc(func(context.Context, http.Header, []byte) (billing.Outcome, error) {
			return "", billing.ErrInvalidPayload
		})))
		rec := post(e.h)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"outcome":"ignored"`)
	})
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	e := newEnv(t, plan.CodeFree, api.WithHealthChecks(map[string]httpserver.Check{
		"postgres": func(context.Context) error { return errors.New("down") },
	}))
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
