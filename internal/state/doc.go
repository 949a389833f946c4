// Package state tracks per-item progress for one pipeline stage and persists
// it as a JSON snapshot. The snapshot is written atomically after every
// mutation so an abnormal exit loses at most the in-flight item's outcome.
package state
