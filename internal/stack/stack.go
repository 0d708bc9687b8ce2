package stack

import (
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"

	"github.com/darwinzer0/datahub-learn/keys"
)

//
// go-ethereum's simulated package allows us to replicate the behavior of a
// Celo execution client in memory, which in turn allows us to test the
// deploy/submit/await-receipt flow end-to-end.
//

const SimulatedChainID = 1337

var OneCelo = big.NewInt(params.Ether)

type BlockchainBackend struct {
	*simulated.Backend
	BankAccount *EOA
}

// NewBackend creates a new in-memory chain with a pre-funded bank account.
func NewBackend() (*BlockchainBackend, error) {

	bankAccount, err := createEOA()
	if err != nil {
		return nil, err
	}

	log.SetDefault(log.NewLogger(log.DiscardHandler()))

	backend := &BlockchainBackend{
		Backend: simTestBackend(bankAccount.Identity.Address),
	}
	backend.BankAccount = bankAccount

	return backend, nil
}

func simTestBackend(testAddr common.Address) *simulated.Backend {
	return simulated.NewBackend(
		types.GenesisAlloc{
			testAddr: {Balance: new(big.Int).Mul(OneCelo, big.NewInt(1000))},
		},
	)
}

type EOA struct {
	*bind.TransactOpts
	Identity   *keys.Identity
	PrivateKey *ecdsa.PrivateKey
}

func createEOA() (*EOA, error) {

	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	id := &keys.Identity{
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}
	opts, err := id.Transactor(big.NewInt(SimulatedChainID))
	if err != nil {
		return nil, err
	}
	return &EOA{
		PrivateKey:   priv,
		TransactOpts: opts,
		Identity:     id,
	}, nil
}

// StartMiner commits a block at the given interval so that submitted
// transactions become includable while a submitter polls for receipts.
// The returned function stops the miner.
func (b *BlockchainBackend) StartMiner(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				b.Commit()
			}
		}
	}()
	return func() { close(done) }
}
