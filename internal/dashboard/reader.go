package dashboard

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/theblitlabs/parity-stake/internal/session"
	"github.com/theblitlabs/parity-stake/internal/telemetry"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

// ContractReader is the read half of the staking contract binding.
type ContractReader interface {
	Stakes(opts *bind.CallOpts, user common.Address) (*big.Int, error)
	GetPendingRewards(opts *bind.CallOpts, user common.Address) (*big.Int, error)
}

// Snapshot holds the two contract values for one address. A nil field means
// the value is absent: no address, or the read failed.
type Snapshot struct {
	Staked         *big.Int
	PendingRewards *big.Int
}

// Reader fetches Snapshots. Read errors are logged and swallowed.
type Reader struct {
	contract ContractReader
}

func NewReader(contract ContractReader) *Reader {
	return &Reader{contract: contract}
}

// Read returns an empty Snapshot when sess is disconnected.
func (r *Reader) Read(ctx context.Context, sess session.Session) Snapshot {
	if r == nil || r.contract == nil || !sess.Connected() {
		return Snapshot{}
	}

	log := logger.WithComponent("dashboard")
	user := *sess.Address
	opts := &bind.CallOpts{Context: ctx, From: user}

	var snap Snapshot

	staked, err := r.contract.Stakes(opts, user)
	if err != nil {
		log.Warn().Err(err).Str("address", user.Hex()).Msg("Failed to read stake")
		telemetry.RecordError("read_stake", "dashboard")
	} else {
		snap.Staked = staked
	}

	rewards, err := r.contract.GetPendingRewards(opts, user)
	if err != nil {
		log.Warn().Err(err).Str("address", user.Hex()).Msg("Failed to read pending rewards")
		telemetry.RecordError("read_rewards", "dashboard")
	} else {
		snap.PendingRewards = rewards
	}

	return snap
}
