// Package catalog keeps a history of completed saves in a Badger store.
//
// Each record is keyed by its run ID, a ULID, so key order is save order
// and the newest entries are found by iterating in reverse.
package catalog
