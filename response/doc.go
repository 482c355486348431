// Package response assembles the final answer for a query: it selects the
// sources worth citing, asks a generator for the answer text, places citation
// markers and scores the result.
//
// When no source clears the relevance floor the assembler does not call the
// generator at all and returns a successful response carrying FallbackText.
package response
