// Package bootloader drives vendor USB boot-loader tools to push bootstrap
// images into attached targets.
//
// Ownership boundary:
// - per-family command construction (MXS, IMX, RK)
//
// - bounded retry while a device enumerates
//
// - driver lifecycle and load dispatch
//
// Lifecycle order:
// - construct (bind resource, resolve tool) -> activate -> load* -> deactivate
//
// A driver owns its resource exclusively for the duration of Load; callers
// must not run concurrent loads against one resource.
package bootloader
