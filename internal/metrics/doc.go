// Package metrics records audit outcomes as Prometheus metrics.
//
// A Recorder registers its collectors on the registry it is given, so
// tests and one-shot CLI runs use a private registry while a long-running
// watch process can share one. WriteTextfile exports a registry in the
// text exposition format for the node_exporter textfile collector.
package metrics
