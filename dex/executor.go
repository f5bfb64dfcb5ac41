// Package dex executes exact-input token swaps through a UniswapV2-style
// router: quote, slippage bound, exact-amount approval, submission with
// fresh-nonce retries, receipt wait.
package dex

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"crospike/chain"
)

// Kind classifies a failed swap attempt.
type Kind string

const (
	KindNone       Kind = ""
	KindQuote      Kind = "quote_failure"
	KindApproval   Kind = "approval_failure"
	KindNonce      Kind = "nonce_conflict"
	KindSubmission Kind = "submission_failure"
	// KindReceipt marks an ambiguous outcome: the swap was sent but its
	// inclusion was not observed within the wait bound. TxHash is set.
	KindReceipt Kind = "receipt_timeout"
)

// SwapResult reports one swap attempt. Amounts are in human units. TxHash is
// only set when a swap transaction was actually sent (success or receipt
// timeout), never for failures that aborted earlier.
type SwapResult struct {
	Success     bool
	TxHash      string
	Kind        Kind
	AmountIn    float64
	ExpectedOut float64
	MinOut      float64
	Err         error
}

// Reason returns a human-readable description of a failure.
func (r SwapResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Pair is the traded token pair: base is bought and sold, quote denominates
// trade amounts and safety thresholds.
type Pair struct {
	Base  common.Address
	Quote common.Address
}

// Balances holds wallet balances in human units.
type Balances struct {
	Base   float64
	Quote  float64
	Native float64
}

// SwapDeadline bounds how long a submitted swap stays valid on-chain.
const SwapDeadline = 10 * time.Minute

const nativeDecimals = 18

// Executor turns trade intents into router transactions. It is safe for
// concurrent use, but callers are expected to serialize trades per wallet:
// nonce assignment is not safe with two swaps in flight.
type Executor struct {
	rpc    chain.RPC
	owner  common.Address
	router common.Address
	pair   Pair
	retry  chain.Retry
	now    func() time.Time

	mu       sync.Mutex
	decimals map[common.Address]uint8
}

func New(rpc chain.RPC, owner, router common.Address, pair Pair) *Executor {
	return &Executor{
		rpc:      rpc,
		owner:    owner,
		router:   router,
		pair:     pair,
		retry:    chain.NonceRetry(),
		now:      time.Now,
		decimals: make(map[common.Address]uint8),
	}
}

// BuyBase swaps quoteAmount of the quote token into the base token.
func (e *Executor) BuyBase(ctx context.Context, quoteAmount, slippagePct float64) SwapResult {
	return e.Swap(ctx, e.pair.Quote, e.pair.Base, quoteAmount, slippagePct)
}

// SellBase swaps baseAmount of the base token into the quote token.
func (e *Executor) SellBase(ctx context.Context, baseAmount, slippagePct float64) SwapResult {
	return e.Swap(ctx, e.pair.Base, e.pair.Quote, baseAmount, slippagePct)
}

// Swap executes an exact-input swap of amountIn (human units of tokenIn)
// along the direct [tokenIn, tokenOut] path.
func (e *Executor) Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, slippagePct float64) SwapResult {
	fail := func(kind Kind, err error) SwapResult {
		return SwapResult{Kind: kind, AmountIn: amountIn, Err: err}
	}

	decIn, err := e.tokenDecimals(ctx, tokenIn)
	if err != nil {
		return fail(KindQuote, fmt.Errorf("token decimals: %w", err))
	}
	decOut, err := e.tokenDecimals(ctx, tokenOut)
	if err != nil {
		return fail(KindQuote, fmt.Errorf("token decimals: %w", err))
	}

	amountWei := toWei(amountIn, decIn)
	path := []common.Address{tokenIn, tokenOut}

	// 1. Quote. No transaction is sent if this fails.
	amounts, err := e.rpc.AmountsOut(ctx, amountWei, path)
	if err != nil {
		return fail(KindQuote, fmt.Errorf("quote: %w", err))
	}
	expected := amounts[len(amounts)-1]

	// 2. Slippage bound, truncated to integer minor units.
	minOut := applySlippage(expected, slippagePct)

	result := SwapResult{
		AmountIn:    amountIn,
		ExpectedOut: toHuman(expected, decOut),
		MinOut:      toHuman(minOut, decOut),
	}

	// 3. Approve exactly the required amount if the allowance is short.
	if err := e.ensureAllowance(ctx, tokenIn, amountWei); err != nil {
		result.Kind = KindApproval
		if chain.IsNonceConflict(err) {
			result.Kind = KindNonce
		}
		result.Err = fmt.Errorf("approval: %w", err)
		return result
	}

	// 4. Submit the swap with a fresh pending nonce per attempt.
	var txHash common.Hash
	err = e.retry.Do(ctx, func() error {
		nonce, err := e.rpc.PendingNonce(ctx, e.owner)
		if err != nil {
			return fmt.Errorf("pending nonce: %w", err)
		}
		deadline := big.NewInt(e.now().Add(SwapDeadline).Unix())
		hash, err := e.rpc.Swap(ctx, amountWei, minOut, path, deadline, nonce)
		if err != nil {
			return err
		}
		txHash = hash
		return nil
	})
	if err != nil {
		result.Kind = KindSubmission
		if chain.IsNonceConflict(err) {
			result.Kind = KindNonce
		}
		result.Err = fmt.Errorf("swap submission: %w", err)
		return result
	}

	receipt, err := e.rpc.WaitMined(ctx, txHash)
	if err != nil {
		if _, ok := chain.IsReceiptTimeout(err); ok {
			result.Kind = KindReceipt
			result.TxHash = txHash.Hex()
			result.Err = err
			return result
		}
		result.Kind = KindSubmission
		result.TxHash = txHash.Hex()
		result.Err = fmt.Errorf("swap receipt: %w", err)
		return result
	}
	if receipt.Status != 1 {
		result.Kind = KindSubmission
		result.TxHash = txHash.Hex()
		result.Err = fmt.Errorf("swap reverted: %s", txHash.Hex())
		return result
	}

	result.Success = true
	result.TxHash = txHash.Hex()
	return result
}

// ensureAllowance approves the router for exactly amount when the current
// allowance is insufficient. The approval is its own transaction with its
// own nonce sequence and receipt wait.
func (e *Executor) ensureAllowance(ctx context.Context, token common.Address, amount *big.Int) error {
	allowance, err := e.rpc.Allowance(ctx, token, e.owner, e.router)
	if err != nil {
		return fmt.Errorf("read allowance: %w", err)
	}
	if allowance.Cmp(amount) >= 0 {
		return nil
	}

	return e.retry.Do(ctx, func() error {
		nonce, err := e.rpc.PendingNonce(ctx, e.owner)
		if err != nil {
			return fmt.Errorf("pending nonce: %w", err)
		}
		hash, err := e.rpc.Approve(ctx, token, e.router, amount, nonce)
		if err != nil {
			return err
		}
		receipt, err := e.rpc.WaitMined(ctx, hash)
		if err != nil {
			return err
		}
		if receipt.Status != 1 {
			return fmt.Errorf("approve reverted: %s", hash.Hex())
		}
		return nil
	})
}

// WalletBalances reads the pair and native balances in human units.
func (e *Executor) WalletBalances(ctx context.Context) (Balances, error) {
	var b Balances

	base, err := e.tokenBalance(ctx, e.pair.Base)
	if err != nil {
		return b, fmt.Errorf("base balance: %w", err)
	}
	quote, err := e.tokenBalance(ctx, e.pair.Quote)
	if err != nil {
		return b, fmt.Errorf("quote balance: %w", err)
	}
	native, err := e.rpc.NativeBalance(ctx, e.owner)
	if err != nil {
		return b, fmt.Errorf("native balance: %w", err)
	}

	b.Base = base
	b.Quote = quote
	b.Native = toHuman(native, nativeDecimals)
	return b, nil
}

func (e *Executor) tokenBalance(ctx context.Context, token common.Address) (float64, error) {
	dec, err := e.tokenDecimals(ctx, token)
	if err != nil {
		return 0, err
	}
	raw, err := e.rpc.TokenBalance(ctx, token, e.owner)
	if err != nil {
		return 0, err
	}
	return toHuman(raw, dec), nil
}

// tokenDecimals looks up a token's native precision once and caches it.
func (e *Executor) tokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	e.mu.Lock()
	dec, ok := e.decimals[token]
	e.mu.Unlock()
	if ok {
		return dec, nil
	}

	dec, err := e.rpc.TokenDecimals(ctx, token)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	e.decimals[token] = dec
	e.mu.Unlock()
	return dec, nil
}

// applySlippage computes expected*(1 - pct/100) truncated to integer minor
// units.
func applySlippage(expected *big.Int, pct float64) *big.Int {
	return decimal.NewFromBigInt(expected, 0).
		Mul(decimal.NewFromInt(100).Sub(decimal.NewFromFloat(pct))).
		Div(decimal.NewFromInt(100)).
		Truncate(0).
		BigInt()
}

func toWei(amount float64, dec uint8) *big.Int {
	return decimal.NewFromFloat(amount).Shift(int32(dec)).Truncate(0).BigInt()
}

func toHuman(amount *big.Int, dec uint8) float64 {
	return decimal.NewFromBigInt(amount, 0).Shift(-int32(dec)).InexactFloat64()
}
