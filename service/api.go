package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/julienschmidt/httprouter"

	"github.com/darwinzer0/datahub-learn/token"
)

const (
	StatusEndPnt = "/status" // status endpoint for LIVENESS probing
	HeathEndPnt  = "/health" // health endpoint for READINESS probing

	CeloBalanceEndPnt   = "/celo/balance/:address" // native CELO balance endpoint
	CeloTxReceiptEndPnt = "/celo/tx/receipt/:id"   // transaction receipt lookup endpoint

	TokenBalanceEndPnt  = "/token/balance/:address"          // GoldToken balanceOf endpoint
	TokenDeployEndPnt   = "/token/deploy"                    // GoldToken deployment endpoint
	TokenTransferEndPnt = "/token/transfer/:address/:amount" // GoldToken transfer endpoint

	metricsEndPnt = "/metrics" // Prometheus metrics endpoint

	timeout = 5 * time.Second
)

func makeServiceAPIs(s *Service) *api {
	return makeAPI([]endPoint{
		{
			path:       StatusEndPnt,
			handler:    s.Status(),
			methodType: http.MethodGet,
		},
		{
			path:       HeathEndPnt,
			handler:    s.Health(),
			methodType: http.MethodGet,
		},
		{
			path:       CeloBalanceEndPnt,
			handler:    s.CeloBalance(),
			methodType: http.MethodGet,
		},
		{
			path:       CeloTxReceiptEndPnt,
			handler:    s.TxReceipt(),
			methodType: http.MethodGet,
		},
		{
			path:       TokenBalanceEndPnt,
			handler:    s.TokenBalance(),
			methodType: http.MethodGet,
		},
		{
			path:       TokenDeployEndPnt,
			handler:    s.TokenDeploy(),
			methodType: http.MethodPost,
		},
		{
			path:       TokenTransferEndPnt,
			handler:    s.TokenTransfer(),
			methodType: http.MethodPost,
		},
	},
	)
}

// StatusResponse contains status response fields.
type StatusResponse struct {
	Message string `json:"message,omitempty"`
	Version string `json:"version,omitempty"`
	Service string `json:"service,omitempty"`
	Signer  string `json:"signer,omitempty"` // address of the loaded signing identity, if any
}

// Status implements the status request endpoint. Always returns OK.
func (s *Service) Status() httprouter.Handle {
	return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		status := &StatusResponse{Message: "OK", Version: FullVersion, Service: ServiceName}
		if s.submitter.CanSign() {
			status.Signer = s.submitter.From().Hex()
		}
		if err := respondWithJSON(w, http.StatusOK, status); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("respond error: %v", err))
		}
	})
}

// HealthResponse contains health probe response fields.
type HealthResponse struct {
	Version  string   `json:"version,omitempty"`
	Service  string   `json:"service,omitempty"`
	Failures []string `json:"failures"`
}

// Health pings the connected Celo nodes. It ensures that every configured
// node is ready to accept transaction submissions and queries.
func (s *Service) Health() httprouter.Handle {
	return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		health := &HealthResponse{
			Service: ServiceName,
			Version: FullVersion,
		}
		var failures = []string{}
		var httpCode = http.StatusOK

		// check clients
		ctx, cancelFunc := context.WithTimeout(r.Context(), timeout)
		defer cancelFunc()
		if _, err := s.client.BlockNumber(ctx); err != nil {
			failureArray := strings.Split(err.Error(), "|")
			trimmed := failureArray[0 : len(failureArray)-1]
			if len(trimmed) == 0 {
				trimmed = failureArray
			}
			failures = append(failures, trimmed...)
		}

		health.Failures = failures

		if len(health.Failures) > 0 {
			httpCode = http.StatusServiceUnavailable
		}

		if err := respondWithJSON(w, httpCode, health); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("respond error: %v", err))
		}
	})
}

// BalanceResponse contains a balance value formatted as a string.
type BalanceResponse struct {
	Balance string `json:"balance"`
}

// CeloBalance handles the native CELO balance endpoint.
func (s *Service) CeloBalance() httprouter.Handle {
	return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {

		address := p.ByName("address")

		if !common.IsHexAddress(address) {
			respondWithError(w, http.StatusBadRequest, fmt.Errorf("invalid address format"))
			return
		}

		ctx, cancelFunc := context.WithTimeout(r.Context(), timeout)
		defer cancelFunc()
		b, err := s.client.BalanceAt(ctx, common.HexToAddress(address), nil)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("celo client error: %v", err))
			return
		}

		if err := respondWithJSON(w, http.StatusOK, &BalanceResponse{Balance: b.String()}); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("respond error: %v", err))
		}
	})
}

// TxReceipt returns a handler for the transaction receipt lookup endpoint.
func (s *Service) TxReceipt() httprouter.Handle {
	return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {

		txid := p.ByName("id")

		if !strings.HasPrefix(txid, "0x") || len(txid) != 66 {
			respondWithError(w, http.StatusBadRequest, fmt.Errorf("invalid hash"))
			return
		}
		txHash := common.HexToHash(txid)

		ctx, cancelFunc := context.WithTimeout(r.Context(), timeout)
		defer cancelFunc()
		receipt, err := s.client.TransactionReceipt(ctx, txHash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				respondWithError(w, http.StatusNotFound, fmt.Errorf("not found"))
				return
			}
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("celo client error: %v", err))
			return
		}

		if err := respondWithJSON(w, http.StatusOK, receipt); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("respond error: %v", err))
		}
	})
}

// TokenBalanceResponse contains a GoldToken balance.
type TokenBalanceResponse struct {
	Token   string `json:"token"`
	Holder  string `json:"holder"`
	Balance string `json:"balance"`
}

// TokenBalance reads the GoldToken balance of an address via a read-only
// contract call.
func (s *Service) TokenBalance() httprouter.Handle {
	return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {

		address := p.ByName("address")
		if !common.IsHexAddress(address) {
			respondWithError(w, http.StatusBadRequest, fmt.Errorf("invalid address format"))
			return
		}

		tok := s.boundToken()
		if tok == nil {
			respondWithError(w, http.StatusNotFound, fmt.Errorf("no token deployed or configured"))
			return
		}

		ctx, cancelFunc := context.WithTimeout(r.Context(), timeout)
		defer cancelFunc()
		holder := common.HexToAddress(address)
		bal, err := tok.BalanceOf(ctx, holder)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("celo client error: %v", err))
			return
		}

		if err := respondWithJSON(w, http.StatusOK, &TokenBalanceResponse{
			Token:   tok.Address().Hex(),
			Holder:  holder.Hex(),
			Balance: bal.String(),
		}); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("respond error: %v", err))
		}
	})
}

// DeployResponse contains the outcome of a GoldToken deployment.
type DeployResponse struct {
	Address string `json:"address"`
	Txid    string `json:"txid"`
	Block   uint64 `json:"block"`
	GasUsed uint64 `json:"gas_used"`
}

// TokenDeploy deploys the sample GoldToken contract, blocks until the
// deployment is included and binds the service to the new address.
func (s *Service) TokenDeploy() httprouter.Handle {
	return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {

		if !s.submitter.CanSign() {
			respondWithError(w, http.StatusServiceUnavailable, fmt.Errorf("no signing identity configured"))
			return
		}

		ctx, cancelFunc := context.WithTimeout(r.Context(), s.submitter.WaitTimeout()+timeout)
		defer cancelFunc()
		tok, receipt, err := token.Deploy(ctx, s.submitter)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("deploy error: %v", err))
			return
		}
		s.bindToken(tok)

		if err := respondWithJSON(w, http.StatusOK, &DeployResponse{
			Address: tok.Address().Hex(),
			Txid:    receipt.TxHash.Hex(),
			Block:   receipt.BlockNumber.Uint64(),
			GasUsed: receipt.GasUsed,
		}); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("respond error: %v", err))
		}
	})
}

// TransferResponse contains the outcome of a GoldToken transfer, including
// the sender's remaining balance.
type TransferResponse struct {
	Txid    string `json:"txid"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
	Balance string `json:"balance"` // sender balance after the transfer
}

// TokenTransfer submits a GoldToken transfer from the signing identity and
// blocks until it is included.
func (s *Service) TokenTransfer() httprouter.Handle {
	return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {

		address := p.ByName("address")
		if !common.IsHexAddress(address) {
			respondWithError(w, http.StatusBadRequest, fmt.Errorf("invalid address format"))
			return
		}
		amount, ok := new(big.Int).SetString(p.ByName("amount"), 10)
		if !ok || amount.Sign() <= 0 {
			respondWithError(w, http.StatusBadRequest, fmt.Errorf("invalid amount"))
			return
		}

		if !s.submitter.CanSign() {
			respondWithError(w, http.StatusServiceUnavailable, fmt.Errorf("no signing identity configured"))
			return
		}

		tok := s.boundToken()
		if tok == nil {
			respondWithError(w, http.StatusNotFound, fmt.Errorf("no token deployed or configured"))
			return
		}

		ctx, cancelFunc := context.WithTimeout(r.Context(), s.submitter.WaitTimeout()+timeout)
		defer cancelFunc()
		to := common.HexToAddress(address)
		receipt, err := tok.Transfer(ctx, to, amount)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("transfer error: %v", err))
			return
		}

		bal, err := tok.BalanceOf(ctx, s.submitter.From())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("celo client error: %v", err))
			return
		}

		if err := respondWithJSON(w, http.StatusOK, &TransferResponse{
			Txid:    receipt.TxHash.Hex(),
			To:      to.Hex(),
			Amount:  amount.String(),
			Balance: bal.String(),
		}); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("respond error: %v", err))
		}
	})
}
