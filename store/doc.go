// Package store defines the persistence contract of the notes service: the
// row models, per-aggregate repositories and a transactional runner. The
// engine packages depend only on these interfaces; store/postgres and
// store/memstore provide implementations.
//
// Every query is scoped by shop ID. Lookups that miss return ErrNotFound.
package store
