package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNonceConflict marks a submission rejected because the account nonce was
// stale, typically due to a concurrently mined transaction. It is the only
// transaction failure worth retrying with a fresh nonce.
var ErrNonceConflict = errors.New("nonce conflict")

// nonce-related fragments seen from EVM nodes. Matching is on the message
// because JSON-RPC errors arrive untyped.
var nonceConflictFragments = []string{
	"nonce too low",
	"invalid nonce",
	"replacement transaction underpriced",
	"already known",
}

// IsNonceConflict reports whether err is a stale-nonce rejection.
func IsNonceConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNonceConflict) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range nonceConflictFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// ReceiptTimeoutError reports a transaction that was sent but whose inclusion
// was not observed within the wait bound. The outcome is ambiguous: the
// transaction may still confirm. Callers must not treat it as a plain
// failure or success.
type ReceiptTimeoutError struct {
	TxHash common.Hash
}

func (e *ReceiptTimeoutError) Error() string {
	return fmt.Sprintf("no receipt for %s within wait bound", e.TxHash.Hex())
}

// IsReceiptTimeout reports whether err is an ambiguous receipt-wait timeout,
// returning the transaction hash when it is.
func IsReceiptTimeout(err error) (common.Hash, bool) {
	var rte *ReceiptTimeoutError
	if errors.As(err, &rte) {
		return rte.TxHash, true
	}
	return common.Hash{}, false
}
