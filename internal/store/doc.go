// Package store defines the persistence interfaces and shared error
// taxonomy for the application. Concrete implementations live in
// internal/platform/postgres. All operations are synchronous and
// transactional: they either fully succeed or fail without partial
// writes within a single call.
package store
