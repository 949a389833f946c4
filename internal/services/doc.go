// Package services defines the error taxonomy shared by pipeline stages and
// the retry executor. Stages wrap failures with a sentinel marker; the
// executor classifies wrapped errors to decide between retrying an item and
// aborting the run.
package services
