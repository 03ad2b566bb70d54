package stakingpool

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	poolAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	userAddr = common.HexToAddress("0x1234567890123456789012345678901234567890")
)

// fakeBackend answers eth_call with a fixed uint256 and records sent
// transactions.
type fakeBackend struct {
	callResult *big.Int
	callErr    error
	calls      []ethereum.CallMsg
	sent       []*types.Transaction
}

func (b *fakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.calls = append(b.calls, call)
	if b.callErr != nil {
		return nil, b.callErr
	}
	return common.LeftPadBytes(b.callResult.Bytes(), 32), nil
}

func (b *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1)}, nil
}

func (b *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 0, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 100000, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *fakeBackend) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("not supported")
}

func parsedABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(StakingPoolABI))
	require.NoError(t, err)
	return parsed
}

func transactOpts(t *testing.T) *bind.TransactOpts {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(1337))
	require.NoError(t, err)
	opts.Nonce = big.NewInt(3)
	opts.GasPrice = big.NewInt(1_000_000_000)
	opts.GasLimit = 200000
	return opts
}

func TestStakingPoolABI(t *testing.T) {
	parsed := parsedABI(t)
	for _, name := range []string{MethodStake, MethodClaimRewards, MethodUnstake, MethodGetPendingRewards, MethodStakes} {
		_, ok := parsed.Methods[name]
		assert.True(t, ok, "missing method %s", name)
	}
}

func TestStakingPool_Reads(t *testing.T) {
	parsed := parsedABI(t)
	backend := &fakeBackend{callResult: big.NewInt(1_500_000_000_000_000_000)}

	pool, err := NewStakingPool(poolAddr, backend)
	require.NoError(t, err)

	t.Run("stakes", func(t *testing.T) {
		got, err := pool.Stakes(&bind.CallOpts{}, userAddr)
		require.NoError(t, err)
		assert.Equal(t, "1500000000000000000", got.String())

		want, err := parsed.Pack(MethodStakes, userAddr)
		require.NoError(t, err)
		last := backend.calls[len(backend.calls)-1]
		assert.Equal(t, want, last.Data)
		assert.Equal(t, poolAddr, *last.To)
	})

	t.Run("pending rewards", func(t *testing.T) {
		_, err := pool.GetPendingRewards(&bind.CallOpts{From: userAddr}, userAddr)
		require.NoError(t, err)

		want, err := parsed.Pack(MethodGetPendingRewards, userAddr)
		require.NoError(t, err)
		last := backend.calls[len(backend.calls)-1]
		assert.Equal(t, want, last.Data)
		assert.Equal(t, userAddr, last.From)
	})

	t.Run("node error", func(t *testing.T) {
		backend.callErr = errors.New("connection refused")
		defer func() { backend.callErr = nil }()

		_, err := pool.Stakes(&bind.CallOpts{}, userAddr)
		assert.ErrorContains(t, err, "stakes call failed")
	})
}

func TestStakingPool_Writes(t *testing.T) {
	parsed := parsedABI(t)

	tests := []struct {
		name   string
		submit func(StakingPool, *bind.TransactOpts) (*types.Transaction, error)
		method string
		args   []interface{}
	}{
		{
			name: "stake",
			submit: func(p StakingPool, o *bind.TransactOpts) (*types.Transaction, error) {
				return p.Stake(o, big.NewInt(42))
			},
			method: MethodStake,
			args:   []interface{}{big.NewInt(42)},
		},
		{
			name: "claim rewards",
			submit: func(p StakingPool, o *bind.TransactOpts) (*types.Transaction, error) {
				return p.ClaimRewards(o)
			},
			method: MethodClaimRewards,
		},
		{
			name: "unstake",
			submit: func(p StakingPool, o *bind.TransactOpts) (*types.Transaction, error) {
				return p.Unstake(o)
			},
			method: MethodUnstake,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			pool, err := NewStakingPool(poolAddr, backend)
			require.NoError(t, err)

			opts := transactOpts(t)
			tx, err := tt.submit(pool, opts)
			require.NoError(t, err)
			require.Len(t, backend.sent, 1)

			want, err := parsed.Pack(tt.method, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, want, tx.Data())
			assert.Equal(t, poolAddr, *tx.To())
			assert.Equal(t, uint64(3), tx.Nonce())

			sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1337)), tx)
			require.NoError(t, err)
			assert.Equal(t, opts.From, sender)
		})
	}
}

func TestStakingPool_StakeRejectsNonPositive(t *testing.T) {
	backend := &fakeBackend{}
	pool, err := NewStakingPool(poolAddr, backend)
	require.NoError(t, err)

	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1)} {
		_, err := pool.Stake(transactOpts(t), amount)
		assert.ErrorIs(t, err, ErrNonPositiveAmount)
	}
	assert.Empty(t, backend.sent)
}
