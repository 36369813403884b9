// Package protocol owns the calculator wire contract.
//
// Ownership boundary:
// - tlv: tag-length-value frame primitives and the sequential buffer reader
// - operation: request variants, text parsing, checked evaluation
// - answer: response container with accumulator and optional diagnostic
package protocol
