// Package token binds the tutorial's GoldToken sample contract to the
// transaction submitter.
package token

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/darwinzer0/datahub-learn/celo"
	"github.com/darwinzer0/datahub-learn/token/data"
)

// InitialBalance is the amount the GoldToken constructor credits to the
// deployer.
var InitialBalance = big.NewInt(10000)

// Token is a deployed (or bound) GoldToken instance.
type Token struct {
	addr common.Address
	sub  *celo.Submitter
	art  *celo.Artifact
}

// Artifact parses the embedded GoldToken build artifact.
func Artifact() (*celo.Artifact, error) {
	return celo.LoadArtifact(strings.NewReader(data.GoldTokenArtifact))
}

// Deploy submits the GoldToken deployment through the submitter and blocks
// until it is included, returning the bound instance and the deployment
// receipt.
func Deploy(ctx context.Context, sub *celo.Submitter) (*Token, *types.Receipt, error) {
	art, err := Artifact()
	if err != nil {
		return nil, nil, err
	}
	addr, receipt, err := sub.Deploy(ctx, art)
	if err != nil {
		return nil, nil, err
	}
	return &Token{addr: addr, sub: sub, art: art}, receipt, nil
}

// Bind attaches to an already-deployed GoldToken at the given address.
func Bind(addr common.Address, sub *celo.Submitter) (*Token, error) {
	art, err := Artifact()
	if err != nil {
		return nil, err
	}
	return &Token{addr: addr, sub: sub, art: art}, nil
}

// Address returns the contract address.
func (t *Token) Address() common.Address {
	return t.addr
}

// BalanceOf reads the token balance of holder via a read-only call.
func (t *Token) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	out, err := t.sub.Call(ctx, t.addr, t.art.ABI, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", out[0])
	}
	return bal, nil
}

// Transfer moves amount token units from the submitter's identity to the
// recipient and blocks until the transfer is included.
func (t *Token) Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.sub.Transact(ctx, t.addr, t.art.ABI, "transfer", to, amount)
}
