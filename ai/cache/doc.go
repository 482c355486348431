// Package cache wraps an ai.Embedder with a Redis-backed vector cache.
//
// Vectors are stored under keys derived from the embedding model and a hash of
// the text, so identical content is embedded once per model. Redis faults are
// logged and the call falls through to the wrapped embedder.
package cache
