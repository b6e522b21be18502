// Package shared groups helpers used by more than one package. Its testutil
// subpackage provides dataset fixtures and a capturing slog handler for tests;
// nothing here carries business logic.
package shared
