package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/theblitlabs/parity-stake/internal/dashboard"
	"github.com/theblitlabs/parity-stake/internal/session"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

// BlockTracker reports the latest block seen by the watcher.
type BlockTracker interface {
	Latest() uint64
}

type StakingHandler struct {
	service    *dashboard.Service
	sessions   *session.Manager
	blocks     BlockTracker
	rpcTimeout time.Duration
}

type StakeRequest struct {
	Amount string `json:"amount"`
}

type TxResponse struct {
	Action string `json:"action"`
	TxHash string `json:"tx_hash"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewStakingHandler(service *dashboard.Service, sessions *session.Manager, blocks BlockTracker, rpcTimeout time.Duration) *StakingHandler {
	return &StakingHandler{
		service:    service,
		sessions:   sessions,
		blocks:     blocks,
		rpcTimeout: rpcTimeout,
	}
}

func (h *StakingHandler) callContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.rpcTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.rpcTimeout)
}

func (h *StakingHandler) view(r *http.Request, sess session.Session, amount string) dashboard.View {
	ctx, cancel := h.callContext(r)
	defer cancel()

	v := h.service.View(ctx, sess, amount)
	if h.blocks != nil {
		v.BlockNumber = h.blocks.Latest()
	}
	return v
}

// Connect binds the daemon's wallet to a new session cookie.
func (h *StakingHandler) Connect(w http.ResponseWriter, r *http.Request) {
	address, ok := h.service.Submitter().SignerAddress()
	if !ok {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "no wallet available - run 'parity-stake auth' first"})
		return
	}

	if prev := session.FromContext(r.Context()); prev.ID != "" {
		h.sessions.Disconnect(prev.ID)
	}

	sess, token, err := h.sessions.Connect(address)
	if err != nil {
		log := logger.WithComponent("api")
		log.Error().Err(err).Msg("Session creation failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "session creation failed"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, h.view(r, sess, ""))
}

// Disconnect clears the caller's session.
func (h *StakingHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess.ID != "" {
		h.sessions.Disconnect(sess.ID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Dashboard returns the current view model; ?amount= is the stake input.
func (h *StakingHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, h.view(r, sess, r.URL.Query().Get("amount")))
}

func (h *StakingHandler) Stake(w http.ResponseWriter, r *http.Request) {
	var req StakeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	sess := session.FromContext(r.Context())
	call, err := dashboard.PrepareStake(sess, req.Amount, h.service.Decimals())
	if err != nil {
		h.writeActionError(w, "stake", err)
		return
	}

	ctx, cancel := h.callContext(r)
	defer cancel()

	tx, err := h.service.Submitter().Stake(ctx, call)
	h.respondTx(w, "stake", tx, err)
}

func (h *StakingHandler) Claim(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.callContext(r)
	defer cancel()

	tx, err := h.service.Submitter().ClaimRewards(ctx, session.FromContext(r.Context()))
	h.respondTx(w, "claim", tx, err)
}

func (h *StakingHandler) Unstake(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.callContext(r)
	defer cancel()

	tx, err := h.service.Submitter().Unstake(ctx, session.FromContext(r.Context()))
	h.respondTx(w, "unstake", tx, err)
}

func (h *StakingHandler) respondTx(w http.ResponseWriter, action string, tx *types.Transaction, err error) {
	if err != nil {
		h.writeActionError(w, action, err)
		return
	}
	writeJSON(w, http.StatusAccepted, TxResponse{Action: action, TxHash: tx.Hash().Hex()})
}

func (h *StakingHandler) writeActionError(w http.ResponseWriter, action string, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, dashboard.ErrNotConnected):
		status = http.StatusUnauthorized
	case errors.Is(err, dashboard.ErrStakeDisabled),
		errors.Is(err, dashboard.ErrNoSigner),
		errors.Is(err, dashboard.ErrAddressMismatch):
		status = http.StatusConflict
	}

	log := logger.WithComponent("api")
	log.Warn().Err(err).Str("action", action).Int("status", status).Msg("Action rejected")

	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.WithComponent("api")
		log.Debug().Err(err).Msg("Response encode failed")
	}
}
