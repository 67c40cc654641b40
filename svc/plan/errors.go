package plan

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidResource          = errors.New("plan.errors.invalid_resource")
	ErrInvalidPlanConfiguration = errors.New("plan.errors.invalid_plan_configuration")
	ErrFailedToLoadPlans        = errors.New("plan.errors.failed_to_load_plans")
	ErrFailedToCountUsage       = errors.New("plan.errors.failed_to_count_usage")
)

// ErrorCode is the stable machine-readable code of a PlanError.
type ErrorCode string

const (
	CodeLimitNotes              ErrorCode = "LIMIT_NOTES"
	CodeLimitFolders            ErrorCode = "LIMIT_FOLDERS"
	CodeLimitVersions           ErrorCode = "LIMIT_VERSIONS"
	CodeFeatureContactsDisabled ErrorCode = "FEATURE_CONTACTS_DISABLED"
	CodeFeatureNoteTagsDisabled ErrorCode = "FEATURE_NOTE_TAGS_DISABLED"
	codeUpgradeRequired         ErrorCode = "UPGRADE_REQUIRED"
)

var defaultMessages = map[ErrorCode]string{
	CodeLimitNotes:              "You have reached the note limit of your plan. Upgrade to create more notes.",
	CodeLimitFolders:            "You have reached the folder limit of your plan. Upgrade to create more folders.",
	CodeLimitVersions:           "All visible versions of this note are manual saves. Upgrade to keep more history or delete a version.",
	CodeFeatureContactsDisabled: "Contacts are available on paid plans.",
	CodeFeatureNoteTagsDisabled: "Note tags are available on paid plans.",
}

// PlanError is an expected, user-actionable refusal. It always maps to 403.
type PlanError struct {
	Code        ErrorCode
	Message     string
	UpgradeHint bool
}

// NewPlanError builds a PlanError with the default message and the upgrade
// hint set.
func NewPlanError(code ErrorCode) *PlanError {
	return &PlanError{Code: code, Message: defaultMessages[code], UpgradeHint: true}
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("plan: %s: %s", e.Code, e.Message)
}

// Is matches any PlanError with the same code, so the sentinels below work
// with errors.Is.
func (e *PlanError) Is(target error) bool {
	t, ok := target.(*PlanError)
	return ok && t.Code == e.Code
}

func (e *PlanError) StatusCode() int { return http.StatusForbidden }

// ExternalCode is the code shown to clients. LIMIT_VERSIONS is published as
// UPGRADE_REQUIRED.
func (e *PlanError) ExternalCode() string {
	if e.Code == CodeLimitVersions {
		return string(codeUpgradeRequired)
	}
	return string(e.Code)
}

// Sentinels for errors.Is.
var (
	ErrLimitNotes              = &PlanError{Code: CodeLimitNotes}
	ErrLimitFolders            = &PlanError{Code: CodeLimitFolders}
	ErrLimitVersions           = &PlanError{Code: CodeLimitVersions}
	ErrFeatureContactsDisabled = &PlanError{Code: CodeFeatureContactsDisabled}
	ErrFeatureNoteTagsDisabled = &PlanError{Code: CodeFeatureNoteTagsDisabled}
)

// AsPlanError unwraps err into a *PlanError.
func AsPlanError(err error) (*PlanError, bool) {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// AccessReason classifies a PlanAccessError.
type AccessReason string

const (
	ReasonShopNotFound   AccessReason = "SHOP_NOT_FOUND"
	ReasonPlanInactive   AccessReason = "PLAN_INACTIVE"
	ReasonPlanRestricted AccessReason = "PLAN_RESTRICTED"
	ReasonQuotaExceeded  AccessReason = "QUOTA_EXCEEDED"
)

// AccessDeniedCode is the top-level code of every serialized PlanAccessError.
const AccessDeniedCode = "PLAN_ACCESS_DENIED"

// PlanAccessError is the usage-check variant returned by Guard.EnsureUsage.
type PlanAccessError struct {
	Reason  AccessReason
	Message string
	Detail  string
	Plan    *Snapshot
}

func (e *PlanAccessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("plan access denied: %s: %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("plan access denied: %s", e.Reason)
}

func (e *PlanAccessError) StatusCode() int {
	if e.Reason == ReasonShopNotFound {
		return http.StatusNotFound
	}
	return http.StatusForbidden
}

// AccessErrorBody is the wire form of a PlanAccessError.
type AccessErrorBody struct {
	Code    string       `json:"code"`
	Reason  AccessReason `json:"reason"`
	Message string       `json:"message"`
	Detail  string       `json:"detail,omitempty"`
	Plan    *Snapshot    `json:"plan,omitempty"`
}

func (e *PlanAccessError) JSON() AccessErrorBody {
	return AccessErrorBody{
		Code:    AccessDeniedCode,
		Reason:  e.Reason,
		Message: e.Message,
		Detail:  e.Detail,
		Plan:    e.Plan,
	}
}
