package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nxkoriyav/accountd/internal/lock"
	"github.com/nxkoriyav/accountd/internal/logger"
	"github.com/nxkoriyav/accountd/internal/service/account"
	"github.com/nxkoriyav/accountd/internal/service/auth"
	"github.com/nxkoriyav/accountd/internal/service/ledger"
	"github.com/nxkoriyav/accountd/internal/testutil"
)

// newTestServer runs the full router over production services backed by
// in-memory storage and an in-memory lock backend.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	storage := testutil.NewMemStorage()

	tokens, err := auth.NewTokenManager(auth.TokenConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	coordinator := lock.NewCoordinator(
		lock.Config{Tries: 1000, Backoff: time.Millisecond},
		lock.NewInMemory(),
		nil,
	)

	h := NewRouter(
		auth.NewService(nil, tokens, storage.User()),
		account.NewService(storage),
		ledger.NewService(storage, coordinator, nil),
		logger.NewNoOpLogger(),
	)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// doJSON sends a request with an optional bearer token and returns the
// response status and body
func doJSON(t *testing.T, srv *httptest.Server, method, path, token, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(got)
}

// registerUser registers a user and returns their access token
func registerUser(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()

	status, body := doJSON(t, srv, "POST", "/auth/register", "",
		`{"username": "`+username+`", "password": "StrongEnoughPassword"}`)
	require.Equalf(t, http.StatusCreated, status, "register failed. Body: %s", body)

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	require.NotEmpty(t, parsed.AccessToken)

	return parsed.AccessToken
}

func TestAuthEndpoints(t *testing.T) {
	t.Run("register ok", func(t *testing.T) {
		srv := newTestServer(t)

		status, body := doJSON(t, srv, "POST", "/auth/register", "",
			`{"username": "nk", "password": "StrongEnoughPassword"}`)

		require.Equalf(t, http.StatusCreated, status, "not expected code. Body: %s", body)

		var parsed struct {
			Username    string `json:"username"`
			AccessToken string `json:"access_token"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &parsed))
		require.Equal(t, "nk", parsed.Username)
		require.NotEmpty(t, parsed.AccessToken)
	})

	t.Run("register duplicate", func(t *testing.T) {
		srv := newTestServer(t)
		registerUser(t, srv, "nk")

		status, body := doJSON(t, srv, "POST", "/auth/register", "",
			`{"username": "nk", "password": "StrongEnoughPassword"}`)

		require.Equalf(t, http.StatusConflict, status, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"error_code": "USER_ALREADY_EXISTS",
				"error_message": "user already exists"
			}`, body)
	})

	t.Run("register short password", func(t *testing.T) {
		srv := newTestServer(t)

		status, body := doJSON(t, srv, "POST", "/auth/register", "",
			`{"username": "nk", "password": "short"}`)

		require.Equalf(t, http.StatusBadRequest, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"INVALID_REQUEST"`)
		require.Contains(t, body, `"password"`)
	})

	t.Run("login ok", func(t *testing.T) {
		srv := newTestServer(t)
		registerUser(t, srv, "nk")

		status, body := doJSON(t, srv, "POST", "/auth/login", "",
			`{"username": "nk", "password": "StrongEnoughPassword"}`)

		require.Equalf(t, http.StatusOK, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"access_token"`)
	})

	t.Run("login wrong password", func(t *testing.T) {
		srv := newTestServer(t)
		registerUser(t, srv, "nk")

		status, body := doJSON(t, srv, "POST", "/auth/login", "",
			`{"username": "nk", "password": "WrongPassword"}`)

		require.Equalf(t, http.StatusUnauthorized, status, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"error_code": "USER_NOT_FOUND",
				"error_message": "user not found"
			}`, body)
	})

	t.Run("protected route without token", func(t *testing.T) {
		srv := newTestServer(t)

		status, body := doJSON(t, srv, "GET", "/accounts", "", "")

		require.Equalf(t, http.StatusUnauthorized, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"USER_NOT_FOUND"`)
	})
}

func TestAccountEndpoints(t *testing.T) {
	t.Run("create and list", func(t *testing.T) {
		srv := newTestServer(t)
		token := registerUser(t, srv, "nk")

		status, body := doJSON(t, srv, "POST", "/account", token, `{"initial_balance": 10000}`)
		require.Equalf(t, http.StatusCreated, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"account_number":"1000000000"`)
		require.Contains(t, body, `"balance":10000`)

		status, body = doJSON(t, srv, "GET", "/accounts", token, "")
		require.Equalf(t, http.StatusOK, status, "not expected code. Body: %s", body)
		require.JSONEq(t, `[{"account_number": "1000000000", "balance": 10000}]`, body)
	})

	t.Run("delete empty account", func(t *testing.T) {
		srv := newTestServer(t)
		token := registerUser(t, srv, "nk")

		status, body := doJSON(t, srv, "POST", "/account", token, `{"initial_balance": 0}`)
		require.Equalf(t, http.StatusCreated, status, "not expected code. Body: %s", body)

		status, body = doJSON(t, srv, "DELETE", "/account", token, `{"account_number": "1000000000"}`)
		require.Equalf(t, http.StatusOK, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"unregistered_at"`)
	})

	t.Run("delete account with balance", func(t *testing.T) {
		srv := newTestServer(t)
		token := registerUser(t, srv, "nk")

		status, body := doJSON(t, srv, "POST", "/account", token, `{"initial_balance": 100}`)
		require.Equalf(t, http.StatusCreated, status, "not expected code. Body: %s", body)

		status, body = doJSON(t, srv, "DELETE", "/account", token, `{"account_number": "1000000000"}`)
		require.Equalf(t, http.StatusBadRequest, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"BALANCE_NOT_EMPTY"`)
	})

	t.Run("delete someone else's account", func(t *testing.T) {
		srv := newTestServer(t)
		owner := registerUser(t, srv, "owner")
		stranger := registerUser(t, srv, "stranger")

		status, body := doJSON(t, srv, "POST", "/account", owner, `{"initial_balance": 0}`)
		require.Equalf(t, http.StatusCreated, status, "not expected code. Body: %s", body)

		status, body = doJSON(t, srv, "DELETE", "/account", stranger, `{"account_number": "1000000000"}`)
		require.Equalf(t, http.StatusBadRequest, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"USER_ACCOUNT_UNMATCH"`)
	})

	t.Run("malformed account number", func(t *testing.T) {
		srv := newTestServer(t)
		token := registerUser(t, srv, "nk")

		status, body := doJSON(t, srv, "DELETE", "/account", token, `{"account_number": "12ab"}`)
		require.Equalf(t, http.StatusBadRequest, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"INVALID_REQUEST"`)
		require.Contains(t, body, `"account_number"`)
	})
}

func TestTransactionEndpoints(t *testing.T) {
	// Register a user with a funded account, return their token
	setup := func(t *testing.T, srv *httptest.Server, balance int64) string {
		t.Helper()

		token := registerUser(t, srv, "nk")
		status, body := doJSON(t, srv, "POST", "/account", token,
			`{"initial_balance": `+jsonInt(balance)+`}`)
		require.Equalf(t, http.StatusCreated, status, "account setup failed. Body: %s", body)
		return token
	}

	t.Run("use ok", func(t *testing.T) {
		srv := newTestServer(t)
		token := setup(t, srv, 10000)

		status, body := doJSON(t, srv, "POST", "/transaction/use", token,
			`{"account_number": "1000000000", "amount": 1000}`)

		require.Equalf(t, http.StatusOK, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"transaction_result":"SUCCESS"`)
		require.Contains(t, body, `"balance_snapshot":9000`)
		require.Contains(t, body, `"transaction_id"`)
	})

	t.Run("use over balance", func(t *testing.T) {
		srv := newTestServer(t)
		token := setup(t, srv, 999)

		status, body := doJSON(t, srv, "POST", "/transaction/use", token,
			`{"account_number": "1000000000", "amount": 1000}`)

		require.Equalf(t, http.StatusPaymentRequired, status, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"error_code": "AMOUNT_EXCEED_BALANCE",
				"error_message": "amount exceeds account balance"
			}`, body)
	})

	t.Run("use on unknown account", func(t *testing.T) {
		srv := newTestServer(t)
		token := setup(t, srv, 1000)

		status, body := doJSON(t, srv, "POST", "/transaction/use", token,
			`{"account_number": "9999999999", "amount": 100}`)

		require.Equalf(t, http.StatusNotFound, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"ACCOUNT_NOT_FOUND"`)
	})

	t.Run("use validation", func(t *testing.T) {
		srv := newTestServer(t)
		token := setup(t, srv, 1000)

		for name, payload := range map[string]string{
			"zero amount":     `{"account_number": "1000000000", "amount": 0}`,
			"negative amount": `{"account_number": "1000000000", "amount": -5}`,
			"huge amount":     `{"account_number": "1000000000", "amount": 1000000001}`,
			"short number":    `{"account_number": "123", "amount": 100}`,
			"missing number":  `{"amount": 100}`,
		} {
			t.Run(name, func(t *testing.T) {
				status, body := doJSON(t, srv, "POST", "/transaction/use", token, payload)

				require.Equalf(t, http.StatusBadRequest, status, "not expected code. Body: %s", body)
				require.Contains(t, body, `"INVALID_REQUEST"`)
			})
		}
	})

	t.Run("use and cancel round trip", func(t *testing.T) {
		srv := newTestServer(t)
		token := setup(t, srv, 10000)

		status, body := doJSON(t, srv, "POST", "/transaction/use", token,
			`{"account_number": "1000000000", "amount": 1000}`)
		require.Equalf(t, http.StatusOK, status, "not expected code. Body: %s", body)

		var used struct {
			TransactionID string `json:"transaction_id"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &used))

		status, body = doJSON(t, srv, "POST", "/transaction/cancel", token,
			`{"transaction_id": "`+used.TransactionID+`", "account_number": "1000000000", "amount": 1000}`)

		require.Equalf(t, http.StatusOK, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"transaction_result":"SUCCESS"`)
		require.Contains(t, body, `"balance_snapshot":10000`)
	})

	t.Run("partial cancel", func(t *testing.T) {
		srv := newTestServer(t)
		token := setup(t, srv, 10000)

		status, body := doJSON(t, srv, "POST", "/transaction/use", token,
			`{"account_number": "1000000000", "amount": 1000}`)
		require.Equalf(t, http.StatusOK, status, "not expected code. Body: %s", body)

		var used struct {
			TransactionID string `json:"transaction_id"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &used))

		status, body = doJSON(t, srv, "POST", "/transaction/cancel", token,
			`{"transaction_id": "`+used.TransactionID+`", "account_number": "1000000000", "amount": 500}`)

		require.Equalf(t, http.StatusBadRequest, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"CANCEL_MUST_FULLY"`)
	})

	t.Run("cancel unknown transaction", func(t *testing.T) {
		srv := newTestServer(t)
		token := setup(t, srv, 1000)

		status, body := doJSON(t, srv, "POST", "/transaction/cancel", token,
			`{"transaction_id": "deadbeefdeadbeefdeadbeefdeadbeef", "account_number": "1000000000", "amount": 100}`)

		require.Equalf(t, http.StatusNotFound, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"TRANSACTION_NOT_FOUND"`)
	})

	t.Run("query transaction", func(t *testing.T) {
		srv := newTestServer(t)
		token := setup(t, srv, 10000)

		status, body := doJSON(t, srv, "POST", "/transaction/use", token,
			`{"account_number": "1000000000", "amount": 1000}`)
		require.Equalf(t, http.StatusOK, status, "not expected code. Body: %s", body)

		var used struct {
			TransactionID string `json:"transaction_id"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &used))

		status, body = doJSON(t, srv, "GET", "/transaction/"+used.TransactionID, token, "")

		require.Equalf(t, http.StatusOK, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"transaction_type":"USE"`)
		require.Contains(t, body, `"transaction_result":"SUCCESS"`)
		require.Contains(t, body, `"amount":1000`)
	})

	t.Run("query unknown transaction", func(t *testing.T) {
		srv := newTestServer(t)
		token := setup(t, srv, 1000)

		status, body := doJSON(t, srv, "GET", "/transaction/deadbeefdeadbeefdeadbeefdeadbeef", token, "")

		require.Equalf(t, http.StatusNotFound, status, "not expected code. Body: %s", body)
		require.Contains(t, body, `"TRANSACTION_NOT_FOUND"`)
	})
}

func jsonInt(v int64) string {
	data, _ := json.Marshal(v)
	return string(data)
}
