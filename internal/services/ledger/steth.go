// Package ledger reads account and pool state from the stETH token contract.
package ledger

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/stakewatch/internal/domain"
)

const (
	methodSharesOf            = "sharesOf"
	methodBalanceOf           = "balanceOf"
	methodGetTotalShares      = "getTotalShares"
	methodGetTotalPooledEther = "getTotalPooledEther"

	defaultCallTimeout = 30 * time.Second
)

var requiredMethods = []string{methodSharesOf, methodBalanceOf, methodGetTotalShares, methodGetTotalPooledEther}

//go:embed steth_abi.json
var embeddedABI []byte

type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// LoadABI parses the contract ABI at path, or the embedded stETH ABI when path is empty.
func LoadABI(path string) (abi.ABI, error) {
	payload := embeddedABI
	if path != "" {
		var err error
		payload, err = os.ReadFile(path)
		if err != nil {
			return abi.ABI{}, errors.Wrapf(err, "read contract abi %s", path)
		}
	}

	parsed, err := abi.JSON(bytes.NewReader(payload))
	if err != nil {
		return abi.ABI{}, errors.Wrap(err, "parse contract abi")
	}

	for _, name := range requiredMethods {
		if _, ok := parsed.Methods[name]; !ok {
			return abi.ABI{}, fmt.Errorf("contract abi has no %s method", name)
		}
	}

	return parsed, nil
}

// StETHReader takes snapshots of an account through the token contract.
type StETHReader struct {
	caller      contractCaller
	contract    common.Address
	abi         abi.ABI
	callTimeout time.Duration
	l           *zap.Logger
}

// NewStETHReader creates a reader for the contract at contractAddress.
func NewStETHReader(caller contractCaller, contractAddress string, contractABI abi.ABI, callTimeout time.Duration, l *zap.Logger) (*StETHReader, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	if l == nil {
		l = zap.NewNop()
	}

	return &StETHReader{
		caller:      caller,
		contract:    common.HexToAddress(contractAddress),
		abi:         contractABI,
		callTimeout: callTimeout,
		l:           l,
	}, nil
}

// Snapshot reads the account's balance and shares plus the pool totals at the latest block.
// All four calls are pinned to the same block; its timestamp becomes ObservedAt.
func (r *StETHReader) Snapshot(ctx context.Context, account string) (domain.LedgerSnapshot, error) {
	if !common.IsHexAddress(account) {
		return domain.LedgerSnapshot{}, fmt.Errorf("invalid account address %q", account)
	}
	holder := common.HexToAddress(account)

	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	header, err := r.caller.HeaderByNumber(ctx, nil)
	if err != nil {
		return domain.LedgerSnapshot{}, errors.Wrapf(domain.ErrLedgerUnreachable, "fetch latest block: %v", err)
	}
	if header == nil || header.Number == nil {
		return domain.LedgerSnapshot{}, errors.Wrap(domain.ErrLedgerUnreachable, "latest block header is empty")
	}

	block := header.Number
	shares, err := r.callUint(ctx, block, methodSharesOf, holder)
	if err != nil {
		return domain.LedgerSnapshot{}, err
	}
	totalPooled, err := r.callUint(ctx, block, methodGetTotalPooledEther)
	if err != nil {
		return domain.LedgerSnapshot{}, err
	}
	totalShares, err := r.callUint(ctx, block, methodGetTotalShares)
	if err != nil {
		return domain.LedgerSnapshot{}, err
	}
	balance, err := r.callUint(ctx, block, methodBalanceOf, holder)
	if err != nil {
		return domain.LedgerSnapshot{}, err
	}

	observedAt := time.Unix(int64(header.Time), 0).UTC()

	r.l.Debug("ledger snapshot",
		zap.String("account", holder.Hex()),
		zap.String("block", block.String()),
		zap.Time("block_time", observedAt),
	)

	return domain.NewLedgerSnapshot(
		holder.Hex(),
		domain.AmountFromBig(balance),
		domain.AmountFromBig(shares),
		domain.AmountFromBig(totalShares),
		domain.AmountFromBig(totalPooled),
		observedAt,
	), nil
}

func (r *StETHReader) callUint(ctx context.Context, block *big.Int, method string, args ...any) (*big.Int, error) {
	data, err := r.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s call", method)
	}

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.contract, Data: data}, block)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrLedgerUnreachable, "call %s: %v", method, err)
	}

	values, err := r.abi.Unpack(method, out)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrLedgerUnreachable, "decode %s result: %v", method, err)
	}
	if len(values) != 1 {
		return nil, errors.Wrapf(domain.ErrLedgerUnreachable, "%s returned %d values", method, len(values))
	}

	v, ok := values[0].(*big.Int)
	if !ok || v == nil {
		return nil, errors.Wrapf(domain.ErrLedgerUnreachable, "%s returned %T, want uint256", method, values[0])
	}

	return v, nil
}
