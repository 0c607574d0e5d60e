// Package domain contains the core entities of the application: users,
// tasks, conversations, and messages. Entities are created through New*
// constructors that validate invariants, and carry no persistence or
// transport concerns.
package domain
