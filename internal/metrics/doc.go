// Package metrics defines the Prometheus collectors recorded during a run.
//
// keyframer is a one-shot CLI, so collectors live on a private registry that
// is written to a node-exporter textfile at the end of a run instead of being
// served over HTTP.
package metrics
