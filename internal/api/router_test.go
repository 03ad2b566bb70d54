package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/parity-stake/internal/api"
	"github.com/theblitlabs/parity-stake/internal/api/handlers"
	"github.com/theblitlabs/parity-stake/internal/config"
	"github.com/theblitlabs/parity-stake/internal/dashboard"
	"github.com/theblitlabs/parity-stake/internal/mocks"
	"github.com/theblitlabs/parity-stake/internal/monitoring/health"
	"github.com/theblitlabs/parity-stake/internal/session"
)

const endpoint = "/api/v1"

var testAddr = common.HexToAddress("0x1234567890123456789012345678901234567890")

type fakeBlocks struct {
	latest uint64
	ch     chan uint64
}

func (f *fakeBlocks) Latest() uint64 { return f.latest }

func (f *fakeBlocks) Subscribe() (<-chan uint64, func()) {
	return f.ch, func() {}
}

type testEnv struct {
	router   *api.Router
	staking  *handlers.StakingHandler
	ws       *handlers.WebSocketHandler
	blocks   *fakeBlocks
	pool     *mocks.MockStakingPool
	signer   *mocks.MockSigner
	sessions *session.Manager
}

func newTestEnv(t *testing.T, withSigner bool) *testEnv {
	t.Helper()

	pool := &mocks.MockStakingPool{}
	pool.On("Stakes", mock.Anything, testAddr).Return(ether(100), nil).Maybe()
	pool.On("GetPendingRewards", mock.Anything, testAddr).Return(ether(10), nil).Maybe()

	signer := &mocks.MockSigner{}
	signer.On("Address").Return(testAddr).Maybe()
	signer.On("TransactOpts", mock.Anything).Return(&bind.TransactOpts{From: testAddr}, nil).Maybe()

	var submitter *dashboard.Submitter
	if withSigner {
		submitter = dashboard.NewSubmitter(pool, signer)
	} else {
		submitter = dashboard.NewSubmitter(pool, nil)
	}

	service := dashboard.NewService(dashboard.NewReader(pool), submitter, dashboard.DefaultDecimals, "PRTY")
	sessions := session.NewManager("test-secret", time.Hour)
	blocks := &fakeBlocks{latest: 42, ch: make(chan uint64, 1)}

	staking := handlers.NewStakingHandler(service, sessions, blocks, time.Second)
	ws := handlers.NewWebSocketHandler(staking, blocks, config.WebsocketConfig{})

	return &testEnv{
		router:   api.NewRouter(staking, ws, sessions, nil, endpoint),
		staking:  staking,
		ws:       ws,
		blocks:   blocks,
		pool:     pool,
		signer:   signer,
		sessions: sessions,
	}
}

func (e *testEnv) do(method, path string, body []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) connect(t *testing.T) *http.Cookie {
	t.Helper()
	rec := e.do(http.MethodPost, "/session", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) dashboard.View {
	t.Helper()
	var v dashboard.View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestHealth_Components(t *testing.T) {
	env := newTestEnv(t, false)
	checker := health.NewHealthChecker(time.Minute)
	checker.Register("node", func(context.Context) (health.Status, string) {
		return health.StatusError, "Node not responding"
	})
	checker.CheckAll(context.Background())

	router := api.NewRouter(env.staking, env.ws, env.sessions, checker, endpoint)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Status     string `json:"status"`
		Components map[string]struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"components"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ERROR", body.Status)
	assert.Equal(t, "Node not responding", body.Components["node"].Message)
}

func TestPage_Disconnected(t *testing.T) {
	env := newTestEnv(t, true)
	rec := env.do(http.MethodGet, "/", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Connect wallet")
	assert.Contains(t, body, "Unstake (with penalty)")
	env.pool.AssertNotCalled(t, "Stakes", mock.Anything, mock.Anything)
}

func TestDashboard_Disconnected(t *testing.T) {
	env := newTestEnv(t, true)
	rec := env.do(http.MethodGet, endpoint+"/dashboard?amount=1.5", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	assert.False(t, v.Connected)
	assert.Equal(t, "0", v.Staked)
	assert.Equal(t, "0", v.PendingRewards)
	assert.Equal(t, "0", v.EstimatedPenalty)
	assert.False(t, v.CanStake)
	assert.Equal(t, uint64(42), v.BlockNumber)
}

func TestConnectAndDashboard(t *testing.T) {
	env := newTestEnv(t, true)

	cookie := env.connect(t)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	rec := env.do(http.MethodGet, endpoint+"/dashboard?amount=1.5", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	v := decodeView(t, rec)
	assert.True(t, v.Connected)
	assert.Equal(t, testAddr.Hex(), v.Address)
	assert.Equal(t, "100", v.Staked)
	assert.Equal(t, "10", v.PendingRewards)
	assert.Equal(t, "1.0000", v.EstimatedPenalty)
	assert.Equal(t, "PRTY", v.Symbol)
	assert.True(t, v.CanStake)
	assert.True(t, v.CanClaim)
	assert.True(t, v.CanUnstake)
}

func TestConnect_NoSigner(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(http.MethodPost, "/session", nil, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestDisconnect(t *testing.T) {
	env := newTestEnv(t, true)
	cookie := env.connect(t)
	require.Equal(t, 1, env.sessions.Active())

	rec := env.do(http.MethodDelete, "/session", nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, env.sessions.Active())

	// the old cookie no longer authorises writes
	rec = env.do(http.MethodPost, endpoint+"/claim", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestActions_RequireSession(t *testing.T) {
	env := newTestEnv(t, true)

	for _, action := range []string{"stake", "claim", "unstake"} {
		t.Run(action, func(t *testing.T) {
			rec := env.do(http.MethodPost, endpoint+"/"+action, []byte(`{"amount":"1"}`), nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
	env.pool.AssertNotCalled(t, "Stake", mock.Anything, mock.Anything)
}

func TestStake(t *testing.T) {
	env := newTestEnv(t, true)
	tx := types.NewTx(&types.LegacyTx{Nonce: 1})
	env.pool.On("Stake", mock.Anything, mock.MatchedBy(func(amount *big.Int) bool {
		return amount.String() == "1500000000000000000"
	})).Return(tx, nil).Once()

	cookie := env.connect(t)
	rec := env.do(http.MethodPost, endpoint+"/stake", []byte(`{"amount":"1.5"}`), cookie)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp handlers.TxResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "stake", resp.Action)
	assert.Equal(t, tx.Hash().Hex(), resp.TxHash)
	env.pool.AssertExpectations(t)
}

func TestStake_InvalidAmount(t *testing.T) {
	env := newTestEnv(t, true)
	cookie := env.connect(t)

	for _, amount := range []string{"", "0", "-5", "abc"} {
		t.Run("amount "+amount, func(t *testing.T) {
			body, err := json.Marshal(handlers.StakeRequest{Amount: amount})
			require.NoError(t, err)
			rec := env.do(http.MethodPost, endpoint+"/stake", body, cookie)
			assert.Equal(t, http.StatusConflict, rec.Code)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		rec := env.do(http.MethodPost, endpoint+"/stake", []byte(`{`), cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	env.pool.AssertNotCalled(t, "Stake", mock.Anything, mock.Anything)
}

func TestClaimAndUnstake(t *testing.T) {
	env := newTestEnv(t, true)
	tx := types.NewTx(&types.LegacyTx{Nonce: 2})
	env.pool.On("ClaimRewards", mock.Anything).Return(tx, nil).Once()
	env.pool.On("Unstake", mock.Anything).Return(nil, errors.New("execution reverted")).Once()

	cookie := env.connect(t)

	rec := env.do(http.MethodPost, endpoint+"/claim", nil, cookie)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), tx.Hash().Hex())

	rec = env.do(http.MethodPost, endpoint+"/unstake", nil, cookie)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "execution reverted")

	env.pool.AssertExpectations(t)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, endpoint+"/stake", nil, nil)
	assert.Contains(t, []int{http.StatusMethodNotAllowed, http.StatusNotFound}, rec.Code)
}
