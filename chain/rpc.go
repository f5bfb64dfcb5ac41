// Package chain talks to the target EVM ledger: wallet signing, the node RPC
// surface the swap pipeline needs, and the nonce-retry policy.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RPC is the chain surface the trading core depends on. Node implements it
// against a live JSON-RPC endpoint; tests substitute fakes.
//
// Approve and Swap take an explicit nonce so the executor can refetch the
// pending nonce immediately before every attempt.
type RPC interface {
	NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)

	// AmountsOut quotes the router for the expected output amounts along path.
	AmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error)

	PendingNonce(ctx context.Context, owner common.Address) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)

	Approve(ctx context.Context, token, spender common.Address, amount *big.Int, nonce uint64) (common.Hash, error)
	Swap(ctx context.Context, amountIn, minOut *big.Int, path []common.Address, deadline *big.Int, nonce uint64) (common.Hash, error)

	// WaitMined blocks until the transaction has a receipt or the node's wait
	// bound expires, in which case it returns a *ReceiptTimeoutError.
	WaitMined(ctx context.Context, tx common.Hash) (*types.Receipt, error)
}
