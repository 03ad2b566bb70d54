package stakingpool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// StakingPool represents the staking contract interface
type StakingPool interface {
	// Read-only methods
	Stakes(opts *bind.CallOpts, user common.Address) (*big.Int, error)
	GetPendingRewards(opts *bind.CallOpts, user common.Address) (*big.Int, error)

	// Transaction methods
	Stake(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)
	ClaimRewards(opts *bind.TransactOpts) (*types.Transaction, error)
	Unstake(opts *bind.TransactOpts) (*types.Transaction, error)
}

// NewStakingPool creates a new instance of StakingPool
func NewStakingPool(address common.Address, backend bind.ContractBackend) (StakingPool, error) {
	return NewStakingPoolContract(address, backend)
}
