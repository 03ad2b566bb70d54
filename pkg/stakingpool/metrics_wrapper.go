package stakingpool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/theblitlabs/parity-stake/internal/telemetry"
)

// MetricsStakingPool wraps a StakingPool and adds metrics
type MetricsStakingPool struct {
	sp StakingPool
}

// NewMetricsStakingPool creates a new metrics-enabled staking pool
func NewMetricsStakingPool(sp StakingPool) *MetricsStakingPool {
	return &MetricsStakingPool{sp: sp}
}

func record(operation string, err error) {
	if err != nil {
		telemetry.RecordStakeOperation(operation, "error")
		return
	}
	telemetry.RecordStakeOperation(operation, "success")
}

// Stakes implements StakingPool interface with metrics
func (m *MetricsStakingPool) Stakes(opts *bind.CallOpts, user common.Address) (*big.Int, error) {
	amount, err := m.sp.Stakes(opts, user)
	record("get_stake", err)
	return amount, err
}

// GetPendingRewards implements StakingPool interface with metrics
func (m *MetricsStakingPool) GetPendingRewards(opts *bind.CallOpts, user common.Address) (*big.Int, error) {
	rewards, err := m.sp.GetPendingRewards(opts, user)
	record("get_rewards", err)
	return rewards, err
}

// Stake implements StakingPool interface with metrics
func (m *MetricsStakingPool) Stake(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	tx, err := m.sp.Stake(opts, amount)
	record("stake", err)
	return tx, err
}

// ClaimRewards implements StakingPool interface with metrics
func (m *MetricsStakingPool) ClaimRewards(opts *bind.TransactOpts) (*types.Transaction, error) {
	tx, err := m.sp.ClaimRewards(opts)
	record("claim", err)
	return tx, err
}

// Unstake implements StakingPool interface with metrics
func (m *MetricsStakingPool) Unstake(opts *bind.TransactOpts) (*types.Transaction, error) {
	tx, err := m.sp.Unstake(opts)
	record("unstake", err)
	return tx, err
}
