package dashboard

import (
	"context"

	"github.com/theblitlabs/parity-stake/internal/session"
)

// View is everything the staking page renders.
type View struct {
	Connected        bool   `json:"connected"`
	Address          string `json:"address,omitempty"`
	Symbol           string `json:"symbol"`
	Staked           string `json:"staked"`
	PendingRewards   string `json:"pending_rewards"`
	EstimatedPenalty string `json:"estimated_penalty"`
	Amount           string `json:"amount"`
	CanStake         bool   `json:"can_stake"`
	CanClaim         bool   `json:"can_claim"`
	CanUnstake       bool   `json:"can_unstake"`
	SignerAvailable  bool   `json:"signer_available"`
	BlockNumber      uint64 `json:"block_number,omitempty"`
}

// Service ties reads, stake preparation and formatting together.
type Service struct {
	reader    *Reader
	submitter *Submitter
	decimals  int
	symbol    string
}

func NewService(reader *Reader, submitter *Submitter, decimals int, symbol string) *Service {
	return &Service{
		reader:    reader,
		submitter: submitter,
		decimals:  decimals,
		symbol:    symbol,
	}
}

func (s *Service) Decimals() int {
	return s.decimals
}

func (s *Service) Symbol() string {
	return s.symbol
}

func (s *Service) Submitter() *Submitter {
	return s.submitter
}

// View reads the contract for sess and evaluates which actions are enabled
// for the current amount input.
func (s *Service) View(ctx context.Context, sess session.Session, amountInput string) View {
	snap := s.reader.Read(ctx, sess)
	return s.Render(sess, snap, amountInput)
}

// Render builds a View from an existing snapshot without touching the chain.
func (s *Service) Render(sess session.Session, snap Snapshot, amountInput string) View {
	writable := s.submitter.Available() && sess.Connected()
	_, err := PrepareStake(sess, amountInput, s.decimals)

	return View{
		Connected:        sess.Connected(),
		Address:          sess.AddressHex(),
		Symbol:           s.symbol,
		Staked:           FormatUnits(snap.Staked, s.decimals),
		PendingRewards:   FormatUnits(snap.PendingRewards, s.decimals),
		EstimatedPenalty: Penalty(snap.PendingRewards, s.decimals),
		Amount:           amountInput,
		CanStake:         writable && err == nil,
		CanClaim:         writable,
		CanUnstake:       writable,
		SignerAvailable:  s.submitter.Available(),
	}
}
