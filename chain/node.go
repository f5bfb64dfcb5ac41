package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Fixed gas limits for the two transaction shapes the bot submits. Generous
// for a UniswapV2-style router; estimation is deliberately avoided so a
// flaky node cannot stall a submission attempt.
const (
	approveGasLimit = 100_000
	swapGasLimit    = 300_000
)

const receiptPollInterval = 2 * time.Second

// erc20ABI carries only the fragments the bot calls.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// routerABI covers the UniswapV2-style router surface: quoting and
// exact-input swaps.
const routerABI = `[
	{"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"}
]`

// Node implements RPC over a live EVM JSON-RPC endpoint.
type Node struct {
	ec          *ethclient.Client
	wallet      *Wallet
	chainID     *big.Int
	router      common.Address
	receiptWait time.Duration

	erc20  abi.ABI
	dexABI abi.ABI
}

// Dial connects to the node and prepares the contract ABIs.
func Dial(ctx context.Context, url string, chainID int64, router common.Address, wallet *Wallet, receiptWait time.Duration) (*Node, error) {
	ec, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}

	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	dex, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}

	return &Node{
		ec:          ec,
		wallet:      wallet,
		chainID:     big.NewInt(chainID),
		router:      router,
		receiptWait: receiptWait,
		erc20:       erc20,
		dexABI:      dex,
	}, nil
}

func (n *Node) Close() {
	n.ec.Close()
}

func (n *Node) call(ctx context.Context, to common.Address, contract abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	res, err := n.ec.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := contract.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

func (n *Node) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return n.ec.BalanceAt(ctx, owner, nil)
}

func (n *Node) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	out, err := n.call(ctx, token, n.erc20, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (n *Node) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := n.call(ctx, token, n.erc20, "decimals")
	if err != nil {
		return 0, err
	}
	return out[0].(uint8), nil
}

func (n *Node) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	out, err := n.call(ctx, token, n.erc20, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (n *Node) AmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	out, err := n.call(ctx, n.router, n.dexABI, "getAmountsOut", amountIn, path)
	if err != nil {
		return nil, err
	}
	return out[0].([]*big.Int), nil
}

func (n *Node) PendingNonce(ctx context.Context, owner common.Address) (uint64, error) {
	return n.ec.PendingNonceAt(ctx, owner)
}

func (n *Node) GasPrice(ctx context.Context) (*big.Int, error) {
	return n.ec.SuggestGasPrice(ctx)
}

func (n *Node) Approve(ctx context.Context, token, spender common.Address, amount *big.Int, nonce uint64) (common.Hash, error) {
	data, err := n.erc20.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack approve: %w", err)
	}
	return n.send(ctx, token, data, approveGasLimit, nonce)
}

func (n *Node) Swap(ctx context.Context, amountIn, minOut *big.Int, path []common.Address, deadline *big.Int, nonce uint64) (common.Hash, error) {
	data, err := n.dexABI.Pack("swapExactTokensForTokens",
		amountIn, minOut, path, n.wallet.Address(), deadline)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack swap: %w", err)
	}
	return n.send(ctx, n.router, data, swapGasLimit, nonce)
}

func (n *Node) send(ctx context.Context, to common.Address, data []byte, gasLimit uint64, nonce uint64) (common.Hash, error) {
	gasPrice, err := n.ec.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     data,
	})

	signed, err := n.wallet.SignTx(tx, n.chainID)
	if err != nil {
		return common.Hash{}, err
	}
	if err := n.ec.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	return signed.Hash(), nil
}

// WaitMined polls for the receipt until the configured wait bound expires.
// Expiry yields a *ReceiptTimeoutError: the transaction is in the wild and
// may still confirm.
func (n *Node) WaitMined(ctx context.Context, tx common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, n.receiptWait)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := n.ec.TransactionReceipt(waitCtx, tx)
		switch {
		case err == nil:
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			// not mined yet
		case waitCtx.Err() != nil:
			return nil, &ReceiptTimeoutError{TxHash: tx}
		default:
			return nil, fmt.Errorf("receipt lookup: %w", err)
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			return nil, &ReceiptTimeoutError{TxHash: tx}
		}
	}
}
