// Package importer loads tickets and their recipes from YAML fixtures into
// storage. Entries are validated up front and written in fixed-size batches,
// one transaction per batch, with progress reported to an io.Writer.
package importer
