// Package memory provides in-memory implementations of the repository
// interfaces, used by the demo binary and tests in place of the external
// transaction/account store.
package memory
