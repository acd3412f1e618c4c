package solanarpc

import (
	"errors"
	"strings"
)

// ErrTransactionTooLarge is returned by BuildAndSend when the serialized
// transaction exceeds the 1232-byte wire ceiling. The check runs before the
// transaction is sent, but after the blockhash is obtained, which is an RPC
// call when the cached blockhash is stale.
var ErrTransactionTooLarge = errors.New("solanarpc: transaction exceeds 1232 byte limit")

// ErrRetriesExhausted is returned when BuildAndSend exhausts MaxRetries
// attempting to build/send a transaction.
var ErrRetriesExhausted = errors.New("solanarpc: retries exhausted")

// isTransient reports whether err matches the spec's Transient error
// taxonomy: HTTP 429, or an RPC error message containing "429" or
// "Too Many Requests".
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Too Many Requests")
}
