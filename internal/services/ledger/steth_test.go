package ledger

import (
	"bytes"
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/stakewatch/internal/domain"
)

const (
	testContract = "0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84"
	testAccount  = "0x00000000219ab540356cbb839cbe05303d7705fa"
)

type fakeChain struct {
	abi       abi.ABI
	results   map[string]*big.Int
	header    *types.Header
	headerErr error
	callErr   error
	raw       []byte
	calls     []ethereum.CallMsg
	blocks    []*big.Int
}

func (f *fakeChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if f.headerErr != nil {
		return nil, f.headerErr
	}
	return f.header, nil
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	f.blocks = append(f.blocks, blockNumber)
	if f.callErr != nil {
		return nil, f.callErr
	}
	if f.raw != nil {
		return f.raw, nil
	}

	for name, method := range f.abi.Methods {
		if bytes.Equal(msg.Data[:4], method.ID) {
			return method.Outputs.Pack(f.results[name])
		}
	}
	return nil, errors.New("unknown selector")
}

func newFakeChain(t *testing.T) *fakeChain {
	t.Helper()

	parsed, err := LoadABI("")
	require.NoError(t, err)

	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	return &fakeChain{
		abi: parsed,
		results: map[string]*big.Int{
			methodSharesOf:            big.NewInt(900),
			methodBalanceOf:           big.NewInt(1000),
			methodGetTotalShares:      big.NewInt(5000),
			methodGetTotalPooledEther: huge,
		},
		header: &types.Header{Number: big.NewInt(19_000_000), Time: 1714564805},
	}
}

func TestStETHReader_Snapshot(t *testing.T) {
	chain := newFakeChain(t)
	r, err := NewStETHReader(chain, testContract, chain.abi, time.Second, zap.NewNop())
	require.NoError(t, err)

	s, err := r.Snapshot(context.Background(), testAccount)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress(testAccount).Hex(), s.Account)
	assert.Equal(t, "1000", domain.FormatAmount(s.Balance))
	assert.Equal(t, "900", domain.FormatAmount(s.Shares))
	assert.Equal(t, "5000", domain.FormatAmount(s.TotalShares))
	assert.Equal(t, "123456789012345678901234567890", domain.FormatAmount(s.TotalPooledValue))
	assert.Equal(t, "2024-05-01 12:00:05", s.ObservedAt.Format(domain.BlockTimeLayout))

	require.Len(t, chain.calls, 4)
	for i, msg := range chain.calls {
		assert.Equal(t, common.HexToAddress(testContract), *msg.To)
		assert.Equal(t, int64(19_000_000), chain.blocks[i].Int64(), "all calls pinned to one block")
	}
}

func TestStETHReader_Unreachable(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fakeChain)
	}{
		{name: "header fails", mutate: func(f *fakeChain) { f.headerErr = errors.New("dial tcp: refused") }},
		{name: "call fails", mutate: func(f *fakeChain) { f.callErr = errors.New("timeout") }},
		{name: "empty result", mutate: func(f *fakeChain) { f.raw = []byte{} }},
		{name: "empty header", mutate: func(f *fakeChain) { f.header = &types.Header{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := newFakeChain(t)
			tt.mutate(chain)
			r, err := NewStETHReader(chain, testContract, chain.abi, time.Second, nil)
			require.NoError(t, err)

			_, err = r.Snapshot(context.Background(), testAccount)
			assert.ErrorIs(t, err, domain.ErrLedgerUnreachable)
		})
	}
}

func TestStETHReader_InvalidAddresses(t *testing.T) {
	chain := newFakeChain(t)

	_, err := NewStETHReader(chain, "not-an-address", chain.abi, 0, nil)
	assert.Error(t, err)

	r, err := NewStETHReader(chain, testContract, chain.abi, 0, nil)
	require.NoError(t, err)
	_, err = r.Snapshot(context.Background(), "0x123")
	assert.Error(t, err)
	assert.Empty(t, chain.calls)
}

func TestLoadABI(t *testing.T) {
	dir := t.TempDir()

	incomplete := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(incomplete, []byte(`[{"constant":true,"inputs":[],"name":"getTotalShares","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`), 0o644))
	_, err := LoadABI(incomplete)
	assert.ErrorContains(t, err, "sharesOf")

	full := filepath.Join(dir, "abi.json")
	require.NoError(t, os.WriteFile(full, embeddedABI, 0o644))
	parsed, err := LoadABI(full)
	require.NoError(t, err)
	assert.Contains(t, parsed.Methods, methodGetTotalPooledEther)

	_, err = LoadABI(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
