package celo

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/darwinzer0/datahub-learn/keys"
)

const (
	defaultPollInterval = time.Second     // receipt poll cadence
	defaultWaitTimeout  = 2 * time.Minute // total receipt wait budget

	gasMargin = 20 // percent added on top of the node's gas estimate
)

// ErrNoIdentity is returned by mutating operations when the submitter was
// constructed without a signing identity.
var ErrNoIdentity = errors.New("no signing identity configured")

// Submitter implements the connect/sign/submit/await-receipt flow against a
// Celo node: it builds a transaction (contract deployment, contract method
// call or native transfer), signs it locally with the loaded identity,
// submits it and blocks until the node returns an inclusion receipt.
//
// Every error in the chain is surfaced to the caller as-is, there is no
// retry beyond the receipt poll and no partial-failure recovery.
type Submitter struct {
	client   Client
	identity *keys.Identity
	logger   *logrus.Entry

	pollInterval time.Duration
	waitTimeout  time.Duration

	// Submissions are serialized to keep pending-nonce handling trivial.
	mu sync.Mutex
}

// SubmitterOpt overrides a Submitter default.
type SubmitterOpt func(*Submitter)

// WithPollInterval sets the receipt polling interval.
func WithPollInterval(d time.Duration) SubmitterOpt {
	return func(s *Submitter) { s.pollInterval = d }
}

// WithWaitTimeout sets the total time budget for awaiting a receipt.
func WithWaitTimeout(d time.Duration) SubmitterOpt {
	return func(s *Submitter) { s.waitTimeout = d }
}

// NewSubmitter constructs a Submitter. The identity may be nil, in which
// case only read-only calls are available and every mutating operation
// returns ErrNoIdentity.
func NewSubmitter(client Client, identity *keys.Identity, l *logrus.Entry, opts ...SubmitterOpt) *Submitter {
	s := &Submitter{
		client:       client,
		identity:     identity,
		logger:       l,
		pollInterval: defaultPollInterval,
		waitTimeout:  defaultWaitTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// From returns the submitter's signing address, or the zero address when no
// identity is configured.
func (s *Submitter) From() common.Address {
	if s.identity == nil {
		return common.Address{}
	}
	return s.identity.Address
}

// CanSign reports whether a signing identity is registered.
func (s *Submitter) CanSign() bool { return s.identity != nil }

// WaitTimeout returns the total receipt wait budget.
func (s *Submitter) WaitTimeout() time.Duration { return s.waitTimeout }

// Deploy submits the artifact's creation bytecode (plus packed constructor
// arguments) and blocks until the deployment is included. The deployed
// address is taken from the receipt and verified to hold code.
func (s *Submitter) Deploy(ctx context.Context, art *Artifact, args ...any) (common.Address, *types.Receipt, error) {
	if !s.CanSign() {
		return common.Address{}, nil, ErrNoIdentity
	}
	if !art.Deployable() {
		return common.Address{}, nil, fmt.Errorf("artifact %q has no deployment bytecode", art.ContractName)
	}
	input, err := art.ABI.Pack("", args...)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("pack constructor args: %v", err)
	}
	data := append(append([]byte{}, art.Bytecode...), input...)

	s.mu.Lock()
	defer s.mu.Unlock()

	receipt, err := s.submit(ctx, nil, nil, data)
	if err != nil {
		return common.Address{}, nil, err
	}
	addr := receipt.ContractAddress
	code, err := s.client.CodeAt(ctx, addr, nil)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("verify deployed code: %v", err)
	}
	if len(code) == 0 {
		return common.Address{}, nil, fmt.Errorf("no code at deployed address %v", addr.Hex())
	}
	s.logger.WithFields(logrus.Fields{
		"contract": art.ContractName,
		"address":  addr.Hex(),
		"txHash":   receipt.TxHash.Hex(),
	}).Info("contract deployed")
	return addr, receipt, nil
}

// Transact packs a contract method call, submits it and blocks until it is
// included.
func (s *Submitter) Transact(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) (*types.Receipt, error) {
	if !s.CanSign() {
		return nil, ErrNoIdentity
	}
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s args: %v", method, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.submit(ctx, &to, nil, input)
}

// SendValue submits a native CELO transfer and blocks until it is included.
func (s *Submitter) SendValue(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error) {
	if !s.CanSign() {
		return nil, ErrNoIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.submit(ctx, &to, amount, nil)
}

// Call executes a read-only contract query (eth_call) and unpacks the
// method outputs. No state is mutated and no gas is spent.
func (s *Submitter) Call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s args: %v", method, err)
	}
	out, err := s.client.CallContract(ctx, ethereum.CallMsg{
		From: s.From(),
		To:   &to,
		Data: input,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %v", method, err)
	}
	res, err := contractABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s result: %v", method, err)
	}
	return res, nil
}

// submit builds, signs and sends a transaction, then awaits its receipt.
// Callers hold s.mu.
func (s *Submitter) submit(ctx context.Context, to *common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	tx, err := s.buildTx(ctx, to, value, data)
	if err != nil {
		return nil, err
	}
	if err := s.client.SendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("send transaction: %v", err)
	}
	s.logger.WithFields(logrus.Fields{
		"txHash": tx.Hash().Hex(),
		"nonce":  tx.Nonce(),
		"gas":    tx.Gas(),
	}).Info("transaction submitted")

	receipt, err := s.WaitMined(ctx, tx.Hash())
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted in block %v", receipt.TxHash.Hex(), receipt.BlockNumber)
	}
	s.logger.WithFields(logrus.Fields{
		"txHash":  receipt.TxHash.Hex(),
		"block":   receipt.BlockNumber,
		"gasUsed": receipt.GasUsed,
	}).Info("transaction confirmed")
	return receipt, nil
}

// buildTx assembles and signs a dynamic-fee transaction. The sender balance
// is checked against the worst-case cost before submission.
func (s *Submitter) buildTx(ctx context.Context, to *common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	from := s.identity.Address

	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch chain head: %v", err)
	}
	tip, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas tip: %v", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	// worst-case fee: 2x current base fee plus the suggested tip
	gasFeeCap := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)

	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetch pending nonce: %v", err)
	}

	if value == nil {
		value = new(big.Int)
	}

	var gas uint64
	if to != nil && len(data) == 0 {
		gas = params.TxGas // plain value transfer
	} else {
		estimate, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
			From:      from,
			To:        to,
			Value:     value,
			Data:      data,
			GasFeeCap: gasFeeCap,
			GasTipCap: tip,
		})
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %v", err)
		}
		gas = estimate + estimate*gasMargin/100
	}

	bal, err := s.client.BalanceAt(ctx, from, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %v", err)
	}
	cost := new(big.Int).Add(value, new(big.Int).Mul(gasFeeCap, new(big.Int).SetUint64(gas)))
	if bal.Cmp(cost) < 0 {
		return nil, fmt.Errorf("insufficient balance %v below (value) %v + (gasFeeCap) %v x (gasUnit) %v", bal, value, gasFeeCap, gas)
	}

	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %v", err)
	}
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: gasFeeCap,
		Gas:       gas,
		To:        to,
		Value:     value,
		Data:      data,
	})
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.identity.PrivateKey)
}

// WaitMined polls the node for the transaction receipt at a constant
// interval until it is found, the wait budget is exhausted or the context
// is cancelled. Every fetch error is treated as transient: nodes return
// ethereum.NotFound before the transaction is included and errors such as
// "transaction indexing is in progress" right after a block commit, both
// of which clear up on a later poll. The wait budget bounds the retries.
func (s *Submitter) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	backoff := retry.WithMaxDuration(s.waitTimeout, retry.NewConstant(s.pollInterval))

	var receipt *types.Receipt
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := s.client.TransactionReceipt(ctx, txHash)
		if err != nil {
			return retry.RetryableError(err)
		}
		receipt = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("await receipt %s: %v", txHash.Hex(), err)
	}
	return receipt, nil
}
