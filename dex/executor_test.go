package dex

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crospike/chain"
)

var (
	baseToken  = common.HexToAddress("0x5C7F8A570d578ED84E63fdFA7b1eE72dEae1AE23")
	quoteToken = common.HexToAddress("0xc21223249CA28397B4B6541dfFaEcC539BfF0c59")
	routerAddr = common.HexToAddress("0x145863Eb42Cf62847A6Ca784e6416C1682b1b2Ae")
	ownerAddr  = common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")
)

type sentSwap struct {
	amountIn *big.Int
	minOut   *big.Int
	path     []common.Address
	deadline *big.Int
	nonce    uint64
}

type sentApprove struct {
	token   common.Address
	spender common.Address
	amount  *big.Int
	nonce   uint64
}

// fakeRPC scripts the chain surface for executor tests.
type fakeRPC struct {
	decimals  map[common.Address]uint8
	balances  map[common.Address]*big.Int
	native    *big.Int
	allowance *big.Int

	quoteOut *big.Int
	quoteErr error

	nonceFetches int

	approveErrs []error // consumed per attempt; nil entry = success
	approves    []sentApprove

	swapErrs []error // consumed per attempt; nil entry = success
	swaps    []sentSwap

	receiptStatus uint64
	waitErr       error
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		decimals: map[common.Address]uint8{
			baseToken:  18,
			quoteToken: 6,
		},
		balances: map[common.Address]*big.Int{
			baseToken:  big.NewInt(0),
			quoteToken: big.NewInt(0),
		},
		native:        big.NewInt(0),
		allowance:     new(big.Int).Lsh(big.NewInt(1), 200), // effectively unlimited
		quoteOut:      big.NewInt(1000),
		receiptStatus: 1,
	}
}

func (f *fakeRPC) NativeBalance(context.Context, common.Address) (*big.Int, error) {
	return f.native, nil
}

func (f *fakeRPC) TokenBalance(_ context.Context, token, _ common.Address) (*big.Int, error) {
	return f.balances[token], nil
}

func (f *fakeRPC) TokenDecimals(_ context.Context, token common.Address) (uint8, error) {
	dec, ok := f.decimals[token]
	if !ok {
		return 0, errors.New("unknown token")
	}
	return dec, nil
}

func (f *fakeRPC) Allowance(context.Context, common.Address, common.Address, common.Address) (*big.Int, error) {
	return f.allowance, nil
}

func (f *fakeRPC) AmountsOut(_ context.Context, amountIn *big.Int, _ []common.Address) ([]*big.Int, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return []*big.Int{amountIn, f.quoteOut}, nil
}

func (f *fakeRPC) PendingNonce(context.Context, common.Address) (uint64, error) {
	f.nonceFetches++
	return uint64(f.nonceFetches), nil
}

func (f *fakeRPC) GasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(5_000_000_000_000), nil
}

func (f *fakeRPC) Approve(_ context.Context, token, spender common.Address, amount *big.Int, nonce uint64) (common.Hash, error) {
	var err error
	if len(f.approveErrs) > 0 {
		err, f.approveErrs = f.approveErrs[0], f.approveErrs[1:]
	}
	if err != nil {
		return common.Hash{}, err
	}
	f.approves = append(f.approves, sentApprove{token: token, spender: spender, amount: amount, nonce: nonce})
	return common.HexToHash("0xaaaa"), nil
}

func (f *fakeRPC) Swap(_ context.Context, amountIn, minOut *big.Int, path []common.Address, deadline *big.Int, nonce uint64) (common.Hash, error) {
	var err error
	if len(f.swapErrs) > 0 {
		err, f.swapErrs = f.swapErrs[0], f.swapErrs[1:]
	}
	if err != nil {
		return common.Hash{}, err
	}
	f.swaps = append(f.swaps, sentSwap{amountIn: amountIn, minOut: minOut, path: path, deadline: deadline, nonce: nonce})
	return common.HexToHash("0xbbbb"), nil
}

func (f *fakeRPC) WaitMined(context.Context, common.Hash) (*types.Receipt, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return &types.Receipt{Status: f.receiptStatus}, nil
}

func newTestExecutor(f *fakeRPC) *Executor {
	e := New(f, ownerAddr, routerAddr, Pair{Base: baseToken, Quote: quoteToken})
	e.retry.Backoff = time.Millisecond
	return e
}

func TestApplySlippage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected int64
		pct      float64
		want     int64
	}{
		{"two percent of 1000", 1000, 2, 980},
		{"truncates toward zero", 1001, 2, 980}, // 980.98
		{"zero slippage", 1000, 0, 1000},
		{"full slippage", 1000, 100, 0},
		{"half percent", 10000, 0.5, 9950},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := applySlippage(big.NewInt(tt.expected), tt.pct)
			assert.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestSwapHappyPath(t *testing.T) {
	t.Parallel()

	f := newFakeRPC()
	f.quoteOut = new(big.Int).Mul(big.NewInt(2500), big.NewInt(1e18)) // 2500 base out
	e := newTestExecutor(f)

	res := e.BuyBase(context.Background(), 100, 2)

	require.True(t, res.Success, res.Reason())
	assert.Equal(t, KindNone, res.Kind)
	assert.NotEmpty(t, res.TxHash)
	assert.Equal(t, 100.0, res.AmountIn)
	assert.InDelta(t, 2500.0, res.ExpectedOut, 1e-9)
	assert.InDelta(t, 2450.0, res.MinOut, 1e-9)

	require.Len(t, f.swaps, 1)
	sent := f.swaps[0]
	// 100 USDC at 6 decimals.
	assert.Equal(t, big.NewInt(100_000_000), sent.amountIn)
	assert.Equal(t, []common.Address{quoteToken, baseToken}, sent.path)
	// Sufficient allowance: no approval transaction.
	assert.Empty(t, f.approves)
	assert.Equal(t, 1, f.nonceFetches)
}

func TestSwapMinOutTruncation(t *testing.T) {
	t.Parallel()

	f := newFakeRPC()
	f.quoteOut = big.NewInt(1000)
	e := newTestExecutor(f)

	res := e.BuyBase(context.Background(), 1, 2)

	require.True(t, res.Success, res.Reason())
	require.Len(t, f.swaps, 1)
	assert.Equal(t, int64(980), f.swaps[0].minOut.Int64())
}

func TestSwapApprovesExactAmountWhenAllowanceShort(t *testing.T) {
	t.Parallel()

	f := newFakeRPC()
	f.allowance = big.NewInt(0)
	e := newTestExecutor(f)

	res := e.BuyBase(context.Background(), 100, 2)

	require.True(t, res.Success, res.Reason())
	require.Len(t, f.approves, 1)
	assert.Equal(t, quoteToken, f.approves[0].token)
	assert.Equal(t, routerAddr, f.approves[0].spender)
	// Exactly the required amount, not unlimited.
	assert.Equal(t, big.NewInt(100_000_000), f.approves[0].amount)
	// One nonce for the approval, one for the swap.
	assert.Equal(t, 2, f.nonceFetches)
}

func TestSwapRetriesNonceConflicts(t *testing.T) {
	t.Parallel()

	f := newFakeRPC()
	f.swapErrs = []error{
		errors.New("nonce too low"),
		errors.New("invalid nonce"),
		nil,
	}
	e := newTestExecutor(f)

	res := e.BuyBase(context.Background(), 100, 2)

	require.True(t, res.Success, res.Reason())
	// A fresh pending nonce per attempt, exactly three fetches.
	assert.Equal(t, 3, f.nonceFetches)
	require.Len(t, f.swaps, 1)
	assert.Equal(t, uint64(3), f.swaps[0].nonce)
}

func TestSwapGivesUpAfterRepeatedConflicts(t *testing.T) {
	t.Parallel()

	f := newFakeRPC()
	f.swapErrs = []error{
		errors.New("nonce too low"),
		errors.New("nonce too low"),
		errors.New("nonce too low"),
		errors.New("nonce too low"),
	}
	e := newTestExecutor(f)

	res := e.BuyBase(context.Background(), 100, 2)

	assert.False(t, res.Success)
	assert.Equal(t, KindNonce, res.Kind)
	assert.Empty(t, res.TxHash)
	assert.Equal(t, 3, f.nonceFetches)
	assert.Empty(t, f.swaps)
}

func TestSwapSubmissionErrorNotRetried(t *testing.T) {
	t.Parallel()

	f := newFakeRPC()
	f.swapErrs = []error{errors.New("execution reverted: VVS: INSUFFICIENT_OUTPUT_AMOUNT")}
	e := newTestExecutor(f)

	res := e.BuyBase(context.Background(), 100, 2)

	assert.False(t, res.Success)
	assert.Equal(t, KindSubmission, res.Kind)
	assert.Empty(t, res.TxHash)
	assert.Equal(t, 1, f.nonceFetches)
}

func TestSwapQuoteFailureSendsNothing(t *testing.T) {
	t.Parallel()

	f := newFakeRPC()
	f.quoteErr = errors.New("connection refused")
	e := newTestExecutor(f)

	res := e.BuyBase(context.Background(), 100, 2)

	assert.False(t, res.Success)
	assert.Equal(t, KindQuote, res.Kind)
	assert.Empty(t, res.TxHash)
	assert.Zero(t, f.nonceFetches)
	assert.Empty(t, f.swaps)
	assert.Empty(t, f.approves)
}

func TestSwapReceiptTimeoutIsAmbiguous(t *testing.T) {
	t.Parallel()

	f := newFakeRPC()
	f.waitErr = &chain.ReceiptTimeoutError{TxHash: common.HexToHash("0xbbbb")}
	e := newTestExecutor(f)

	res := e.BuyBase(context.Background(), 100, 2)

	assert.False(t, res.Success)
	assert.Equal(t, KindReceipt, res.Kind)
	// The transaction is in the wild, so the hash must be surfaced.
	assert.NotEmpty(t, res.TxHash)
}

func TestSwapRevertedOnChain(t *testing.T) {
	t.Parallel()

	f := newFakeRPC()
	f.receiptStatus = 0
	e := newTestExecutor(f)

	res := e.BuyBase(context.Background(), 100, 2)

	assert.False(t, res.Success)
	assert.Equal(t, KindSubmission, res.Kind)
	assert.NotEmpty(t, res.TxHash)
}

func TestSellBaseUsesBaseDecimals(t *testing.T) {
	t.Parallel()

	f := newFakeRPC()
	f.quoteOut = big.NewInt(50_000_000) // 50 USDC out
	e := newTestExecutor(f)

	res := e.SellBase(context.Background(), 1.5, 2)

	require.True(t, res.Success, res.Reason())
	require.Len(t, f.swaps, 1)
	// 1.5 base tokens at 18 decimals.
	want, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, want, f.swaps[0].amountIn)
	assert.Equal(t, []common.Address{baseToken, quoteToken}, f.swaps[0].path)
	assert.InDelta(t, 50.0, res.ExpectedOut, 1e-9)
}

func TestWalletBalances(t *testing.T) {
	t.Parallel()

	f := newFakeRPC()
	f.balances[baseToken], _ = new(big.Int).SetString("2000000000000000000", 10) // 2 base
	f.balances[quoteToken] = big.NewInt(125_500_000)                            // 125.5 quote
	f.native, _ = new(big.Int).SetString("3000000000000000000", 10)             // 3 native
	e := newTestExecutor(f)

	b, err := e.WalletBalances(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 2.0, b.Base, 1e-9)
	assert.InDelta(t, 125.5, b.Quote, 1e-9)
	assert.InDelta(t, 3.0, b.Native, 1e-9)
}
