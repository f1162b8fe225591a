// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): state storage, vector storage, embedding
// and generation providers, PDF decoding, and OCR.
package driven
