// Package diag defines the diagnostic model shared by the generator phases.
//
// Diagnostics point at metadata entities (Location: module, namespace, type,
// member) rather than source spans. Producers report through a Reporter;
// phases that run per namespace fill their own Bag and the driver merges
// them after the join, so Bag itself is not synchronised.
//
// Package diag does not print or colour anything; the CLI does that.
package diag
