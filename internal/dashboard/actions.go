package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/theblitlabs/parity-stake/internal/session"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

var tracer = otel.Tracer("github.com/theblitlabs/parity-stake/internal/dashboard")

var (
	ErrStakeDisabled   = errors.New("stake is disabled: amount must be positive and a wallet connected")
	ErrNotConnected    = errors.New("no wallet connected")
	ErrNoSigner        = errors.New("no signer available")
	ErrAddressMismatch = errors.New("session address does not match signer")
)

// ContractWriter is the write half of the staking contract binding.
type ContractWriter interface {
	Stake(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)
	ClaimRewards(opts *bind.TransactOpts) (*types.Transaction, error)
	Unstake(opts *bind.TransactOpts) (*types.Transaction, error)
}

// Signer produces signing options for the wallet's address.
type Signer interface {
	Address() common.Address
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

// StakeCall is a validated stake(amount) request.
type StakeCall struct {
	From   common.Address
	Amount *big.Int
}

// PrepareStake validates input for sess. It returns ErrStakeDisabled unless
// the input is a positive amount and a wallet is connected.
func PrepareStake(sess session.Session, input string, decimals int) (*StakeCall, error) {
	if !sess.Connected() {
		return nil, ErrStakeDisabled
	}
	amount, err := ParseAmount(input, decimals)
	if err != nil || amount.Sign() <= 0 {
		return nil, ErrStakeDisabled
	}
	return &StakeCall{From: *sess.Address, Amount: amount}, nil
}

// Submitter forwards write actions to the contract, one transaction per call.
// It neither retries nor waits for the transaction to be mined.
type Submitter struct {
	contract ContractWriter
	signer   Signer
}

// NewSubmitter returns a submitter; a nil signer disables every write.
func NewSubmitter(contract ContractWriter, signer Signer) *Submitter {
	return &Submitter{contract: contract, signer: signer}
}

// Available reports whether write bindings exist at all
func (s *Submitter) Available() bool {
	return s != nil && s.contract != nil && s.signer != nil
}

// SignerAddress returns the address transactions are sent from
func (s *Submitter) SignerAddress() (common.Address, bool) {
	if !s.Available() {
		return common.Address{}, false
	}
	return s.signer.Address(), true
}

// Stake submits call.
func (s *Submitter) Stake(ctx context.Context, call *StakeCall) (*types.Transaction, error) {
	if call == nil {
		return nil, ErrStakeDisabled
	}
	ctx, span := tracer.Start(ctx, "stake", trace.WithAttributes(
		attribute.String("from", call.From.Hex()),
		attribute.String("amount", call.Amount.String()),
	))
	defer span.End()

	opts, err := s.opts(ctx, call.From)
	if err != nil {
		return nil, endSpan(span, err)
	}
	tx, err := s.contract.Stake(opts, call.Amount)
	if err != nil {
		return nil, endSpan(span, fmt.Errorf("stake transaction failed: %w", err))
	}
	s.logSubmitted(span, "stake", tx, call.Amount)
	return tx, nil
}

// ClaimRewards submits claimRewards() for sess.
func (s *Submitter) ClaimRewards(ctx context.Context, sess session.Session) (*types.Transaction, error) {
	if !sess.Connected() {
		return nil, ErrNotConnected
	}
	ctx, span := tracer.Start(ctx, "claim", trace.WithAttributes(attribute.String("from", sess.AddressHex())))
	defer span.End()

	opts, err := s.opts(ctx, *sess.Address)
	if err != nil {
		return nil, endSpan(span, err)
	}
	tx, err := s.contract.ClaimRewards(opts)
	if err != nil {
		return nil, endSpan(span, fmt.Errorf("claim transaction failed: %w", err))
	}
	s.logSubmitted(span, "claim", tx, nil)
	return tx, nil
}

// Unstake submits unstake() for sess.
func (s *Submitter) Unstake(ctx context.Context, sess session.Session) (*types.Transaction, error) {
	if !sess.Connected() {
		return nil, ErrNotConnected
	}
	ctx, span := tracer.Start(ctx, "unstake", trace.WithAttributes(attribute.String("from", sess.AddressHex())))
	defer span.End()

	opts, err := s.opts(ctx, *sess.Address)
	if err != nil {
		return nil, endSpan(span, err)
	}
	tx, err := s.contract.Unstake(opts)
	if err != nil {
		return nil, endSpan(span, fmt.Errorf("unstake transaction failed: %w", err))
	}
	s.logSubmitted(span, "unstake", tx, nil)
	return tx, nil
}

func (s *Submitter) opts(ctx context.Context, from common.Address) (*bind.TransactOpts, error) {
	if !s.Available() {
		return nil, ErrNoSigner
	}
	if s.signer.Address() != from {
		return nil, ErrAddressMismatch
	}
	opts, err := s.signer.TransactOpts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare transaction: %w", err)
	}
	return opts, nil
}

func endSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *Submitter) logSubmitted(span trace.Span, action string, tx *types.Transaction, amount *big.Int) {
	log := logger.WithComponent("dashboard")
	event := log.Info().
		Str("action", action).
		Str("from", s.signer.Address().Hex())
	if tx != nil {
		event = event.Str("tx_hash", tx.Hash().Hex())
		span.SetAttributes(attribute.String("tx_hash", tx.Hash().Hex()))
	}
	if amount != nil {
		event = event.Str("amount", amount.String())
	}
	event.Msg("Transaction submitted")
}
