package stakingpool

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// StakingPoolContract is the Go binding of the staking contract
type StakingPoolContract struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// StakingPoolABI holds the subset of the contract ABI this client calls.
const StakingPoolABI = `[
    {
      "inputs": [
        {
          "internalType": "uint256",
          "name": "amount",
          "type": "uint256"
        }
      ],
      "name": "stake",
      "outputs": [],
      "stateMutability": "nonpayable",
      "type": "function"
    },
    {
      "inputs": [],
      "name": "claimRewards",
      "outputs": [],
      "stateMutability": "nonpayable",
      "type": "function"
    },
    {
      "inputs": [],
      "name": "unstake",
      "outputs": [],
      "stateMutability": "nonpayable",
      "type": "function"
    },
    {
      "inputs": [
        {
          "internalType": "address",
          "name": "user",
          "type": "address"
        }
      ],
      "name": "getPendingRewards",
      "outputs": [
        {
          "internalType": "uint256",
          "name": "",
          "type": "uint256"
        }
      ],
      "stateMutability": "view",
      "type": "function"
    },
    {
      "inputs": [
        {
          "internalType": "address",
          "name": "",
          "type": "address"
        }
      ],
      "name": "stakes",
      "outputs": [
        {
          "internalType": "uint256",
          "name": "",
          "type": "uint256"
        }
      ],
      "stateMutability": "view",
      "type": "function"
    }
  ]`

// Method names as they appear in the ABI.
const (
	MethodStake             = "stake"
	MethodClaimRewards      = "claimRewards"
	MethodUnstake           = "unstake"
	MethodGetPendingRewards = "getPendingRewards"
	MethodStakes            = "stakes"
)

var ErrNonPositiveAmount = errors.New("stake amount must be positive")

// NewStakingPoolContract creates a new instance of the contract bindings
func NewStakingPoolContract(address common.Address, backend bind.ContractBackend) (*StakingPoolContract, error) {
	contractABI, err := abi.JSON(strings.NewReader(StakingPoolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse staking ABI: %w", err)
	}

	return &StakingPoolContract{
		address:  address,
		abi:      contractABI,
		contract: bind.NewBoundContract(address, contractABI, backend, backend, backend),
	}, nil
}

// Address returns the contract address
func (c *StakingPoolContract) Address() common.Address {
	return c.address
}

// Stakes returns the amount staked by user, in the token's smallest unit
func (c *StakingPoolContract) Stakes(opts *bind.CallOpts, user common.Address) (*big.Int, error) {
	return c.callUint256(opts, MethodStakes, user)
}

// GetPendingRewards returns the rewards accrued by user and not yet claimed
func (c *StakingPoolContract) GetPendingRewards(opts *bind.CallOpts, user common.Address) (*big.Int, error) {
	return c.callUint256(opts, MethodGetPendingRewards, user)
}

func (c *StakingPoolContract) callUint256(opts *bind.CallOpts, method string, args ...interface{}) (*big.Int, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Stake locks amount tokens in the contract
func (c *StakingPoolContract) Stake(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrNonPositiveAmount
	}
	return c.contract.Transact(opts, MethodStake, amount)
}

// ClaimRewards withdraws the caller's pending rewards
func (c *StakingPoolContract) ClaimRewards(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.contract.Transact(opts, MethodClaimRewards)
}

// Unstake withdraws the caller's stake; the contract applies its own penalty
func (c *StakingPoolContract) Unstake(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.contract.Transact(opts, MethodUnstake)
}
