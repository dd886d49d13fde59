// Package staging makes local image files readable where a loader tool runs.
//
// Ownership boundary:
// - source validation for local resources
//
// - content-addressed upload to the exporter for network resources
//
// A StagedFile is built per invocation and never cached across calls.
package staging
