// Package enrich turns raw paper records into annotated PaperRecords with a
// single batched LLM call.
//
// The stage never shrinks a batch: every input record yields exactly one
// output record in the same order. Records the model did not annotate get a
// per-record fallback built from the English abstract, and an outright
// service failure gives every pending record a fixed fallback annotation.
// Successful annotations are cached by paper id so a record fetched again
// later in a session is not sent to the model twice.
package enrich
