// Package history persists the clipboard history checkpoint. Rows are keyed
// by a BLAKE2b-256 digest of the content, which keeps the table free of
// duplicate values without indexing the text itself.
package history
