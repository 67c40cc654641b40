// Package plan holds the plan policy table and the quota guard built on it.
//
// A Catalog maps plan codes (FREE, BASIC, PRO, ENTERPRISE) to a Policy of
// per-resource limits and feature flags. Limits use Unlimited (-1) for
// unbounded resources. Catalogs are loaded once from a Source, either the
// built-in defaults or a YAML file, and are read-only afterwards.
//
// Guard turns the policy into decisions. EnsureCanCreate and
// EnsureFeatureEnabled return *PlanError values carrying a stable code for the
// UI; EnsureUsage returns the broader *PlanAccessError. Unlimited resources
// never trigger a count query.
//
// The create check is not serialized against concurrent creates from the same
// shop. Two requests racing at exactly the limit may both pass.
package plan
