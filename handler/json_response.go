package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/shopnotes/binder"
	"github.com/dmitrymomot/shopnotes/store"
	"github.com/dmitrymomot/shopnotes/svc/plan"
)

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Meta  any          `json:"meta,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail is the error member of the envelope. UpgradeHint is set for
// plan refusals; Reason, Detail and Plan only for access-check denials.
type ErrorDetail struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	UpgradeHint bool              `json:"upgradeHint,omitempty"`
	Reason      plan.AccessReason `json:"reason,omitempty"`
	Detail      string            `json:"detail,omitempty"`
	Plan        *plan.Snapshot    `json:"plan,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

func WithJSONMeta(meta any) JSONOption {
	return func(r *jsonResponse) {
		r.body.Meta = meta
	}
}

// JSON wraps v as data. An error value is rendered as JSONError would.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK}
	switch val := v.(type) {
	case JSONResponse:
		r.body = val
	case error:
		r.body.Error = ErrorToDetail(val, &r.status)
	default:
		r.body.Data = v
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func JSONError(err error, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusInternalServerError}
	r.body.Error = ErrorToDetail(err, &r.status)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ErrorToDetail converts err into its wire form and sets status.
func ErrorToDetail(err error, status *int) *ErrorDetail {
	if pe, ok := plan.AsPlanError(err); ok {
		*status = pe.StatusCode()
		return &ErrorDetail{Code: pe.ExternalCode(), Message: pe.Message, UpgradeHint: pe.UpgradeHint}
	}

	var ae *plan.PlanAccessError
	if errors.As(err, &ae) {
		*status = ae.StatusCode()
		body := ae.JSON()
		return &ErrorDetail{
			Code:    body.Code,
			Message: body.Message,
			Reason:  body.Reason,
			Detail:  body.Detail,
			Plan:    body.Plan,
		}
	}

	var fe FieldErrors
	if errors.As(err, &fe) {
		*status = http.StatusUnprocessableEntity
		return &ErrorDetail{Code: "validation_error", Message: "Some fields are invalid.", Fields: fe}
	}

	var he HTTPError
	switch {
	case errors.As(err, &he):
	case errors.Is(err, store.ErrNotFound):
		he = ErrNotFound
	case errors.Is(err, store.ErrInvalidArgument):
		he = ErrBadRequest
	case errors.Is(err, binder.ErrBodyTooLarge):
		he = ErrRequestTooLarge
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		he = ErrUnsupportedMedia
	case binder.IsBindError(err):
		*status = http.StatusBadRequest
		return &ErrorDetail{Code: ErrBadRequest.Key, Message: err.Error()}
	default:
		he = ErrInternalServerError
	}
	*status = he.Code
	return &ErrorDetail{Code: he.Key, Message: http.StatusText(he.Code)}
}

// FieldErrors maps request fields to a problem description.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	return "validation failed"
}
