package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"token_hub/internal/app"
	"token_hub/internal/config"
	"token_hub/internal/ledger"
	"token_hub/internal/models"
	"token_hub/internal/pkg/logger"
	"token_hub/internal/service"
	"token_hub/internal/storage"

	"github.com/stretchr/testify/suite"
)

type IntegrationTestSuite struct {
	suite.Suite
	server *httptest.Server
	client *http.Client
	store  *storage.Badger
}

func (s *IntegrationTestSuite) SetupSuite() {
	var l *logger.Logger
	var err error
	if l, err = logger.CreateLogger("info"); err != nil {
		log.Fatal("Failed to create logger:", err)
	}

	s.store, err = storage.NewBadger(s.T().TempDir(), l)
	s.Require().NoError(err, "Error opening test store")

	ctx := context.Background()
	balances, err := ledger.NewBalances(ctx, s.store, l, config.DefaultGrant)
	s.Require().NoError(err)
	transfers, err := ledger.NewTransfers(ctx, s.store, l, balances)
	s.Require().NoError(err)

	appInstance := app.NewApp(balances, transfers, s.store, l)
	serviceInstance := service.NewService(appInstance, config.ServerRunAddress, l)

	s.server = httptest.NewServer(serviceInstance.NewRouter())
	s.client = s.server.Client()
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.server.Close()
	s.store.Close()
}

func (s *IntegrationTestSuite) login(username string) models.LoginResponse {
	reqBody, err := json.Marshal(models.LoginRequest{Username: username})
	s.Require().NoError(err, "Error marshaling login request")

	resp, err := s.client.Post(s.server.URL+"/api/login", "application/json", bytes.NewBuffer(reqBody))
	s.Require().NoError(err, "Error sending login request")
	s.Require().Equal(http.StatusOK, resp.StatusCode, "Expected status 200 for login")

	var loginResp models.LoginResponse
	err = json.NewDecoder(resp.Body).Decode(&loginResp)
	resp.Body.Close()
	s.Require().NoError(err, "Error decoding login response")
	s.Require().NotEmpty(loginResp.Token)
	return loginResp
}

func (s *IntegrationTestSuite) doAuthorized(method, path string, payload interface{}, token string) *http.Response {
	var body bytes.Buffer
	if payload != nil {
		s.Require().NoError(json.NewEncoder(&body).Encode(payload))
	}

	req, err := http.NewRequest(method, s.server.URL+path, &body)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *IntegrationTestSuite) info(token string) models.InfoResponse {
	resp := s.doAuthorized(http.MethodGet, "/api/info", nil, token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var info models.InfoResponse
	err := json.NewDecoder(resp.Body).Decode(&info)
	resp.Body.Close()
	s.Require().NoError(err)
	return info
}

func (s *IntegrationTestSuite) TestTransferLifecycle() {
	alice := s.login("alice")
	bob := s.login("bob")
	s.Equal(config.DefaultGrant, alice.Balance)
	s.Equal(config.DefaultGrant, bob.Balance)

	// Alice proposes 4 tokens for Bob; Bob approves.
	resp := s.doAuthorized(http.MethodPost, "/api/transfers", models.SuggestRequest{Recipient: "bob", Amount: 4}, alice.Token)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var suggested models.SuggestResponse
	err := json.NewDecoder(resp.Body).Decode(&suggested)
	resp.Body.Close()
	s.Require().NoError(err)

	resp = s.doAuthorized(http.MethodPost, "/api/transfers/0/approve", nil, bob.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	aliceInfo := s.info(alice.Token)
	bobInfo := s.info(bob.Token)
	s.Equal(config.DefaultGrant-4, aliceInfo.Balance)
	s.Equal(config.DefaultGrant+4, bobInfo.Balance)
	s.Require().Len(aliceInfo.History.Sent, 1)
	s.Equal(models.StatusApproved, aliceInfo.History.Sent[0].Status)
	s.Require().Len(bobInfo.History.Received, 1)
	s.Equal("alice", bobInfo.History.Received[0].FromUser)

	// A second approval of the same transfer must be refused.
	resp = s.doAuthorized(http.MethodPost, "/api/transfers/0/approve", nil, bob.Token)
	s.Equal(http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Bob proposes 2 tokens back; Alice rejects, balances stay put.
	resp = s.doAuthorized(http.MethodPost, "/api/transfers", models.SuggestRequest{Recipient: "alice", Amount: 2}, bob.Token)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.doAuthorized(http.MethodPost, "/api/transfers/1/reject", nil, alice.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	s.Equal(config.DefaultGrant-4, s.info(alice.Token).Balance)
	s.Equal(config.DefaultGrant+4, s.info(bob.Token).Balance)

	// A transfer approved before the recipient's first login is credited on
	// top of the default grant when they do log in.
	resp = s.doAuthorized(http.MethodPost, "/api/transfers", models.SuggestRequest{Recipient: "carol", Amount: 3}, bob.Token)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.doAuthorized(http.MethodPost, "/api/transfers/2/approve", nil, alice.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	carol := s.login("carol")
	s.Equal(3, carol.Balance, "an existing balance record must win over the grant computation")

	resp = s.doAuthorized(http.MethodPost, "/api/logout", nil, carol.Token)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
