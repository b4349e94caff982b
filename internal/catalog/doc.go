// Package catalog keeps a SQLite ledger of completed recordings.
//
// The extract command records every finished capture here and consults the
// ledger to skip notices that were already recorded. Rows are keyed by the
// notice URL; recording the same URL again replaces the earlier row.
package catalog
