// Package app assembles the shopnotes services from configuration. The
// constructors here are shared by every command of cmd/shopnotes.
package app
