// Package logger builds *slog.Logger instances for the service.
//
// New applies functional options on top of production defaults (JSON, INFO)
// and wraps the selected slog handler with a decorator that pulls request
// scoped attributes, such as the request ID or the shop domain, out of the
// context on every record. The attribute helpers in attr.go keep key names
// consistent across packages.
package logger
