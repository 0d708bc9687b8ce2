package keys

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Identity is a signing identity derived from a configured secret. It is
// derived once at process start and held in memory for the process
// lifetime, never persisted.
type Identity struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// FromHex derives an Identity from a hex-encoded secp256k1 private key.
// A leading '0x' prefix is accepted.
func FromHex(secret string) (*Identity, error) {
	if secret == "" {
		return nil, fmt.Errorf("empty private key")
	}
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(secret, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %v", err)
	}
	return &Identity{
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}, nil
}

// Transactor returns transaction-signing options bound to the identity
// for the given chain.
func (id *Identity) Transactor(chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(id.PrivateKey, chainID)
}
