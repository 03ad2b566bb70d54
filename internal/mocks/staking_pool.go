package mocks

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

type MockStakingPool struct {
	mock.Mock
}

func (m *MockStakingPool) Stakes(opts *bind.CallOpts, user common.Address) (*big.Int, error) {
	args := m.Called(opts, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockStakingPool) GetPendingRewards(opts *bind.CallOpts, user common.Address) (*big.Int, error) {
	args := m.Called(opts, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockStakingPool) Stake(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	args := m.Called(opts, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Transaction), args.Error(1)
}

func (m *MockStakingPool) ClaimRewards(opts *bind.TransactOpts) (*types.Transaction, error) {
	args := m.Called(opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Transaction), args.Error(1)
}

func (m *MockStakingPool) Unstake(opts *bind.TransactOpts) (*types.Transaction, error) {
	args := m.Called(opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Transaction), args.Error(1)
}
