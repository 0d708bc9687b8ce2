package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/darwinzer0/datahub-learn/internal/stack"
)

const testPort = 8083

var recipientAddr = common.HexToAddress("0xfe3b557e8fb62b89f4916b721be55ceb828dbd73")

func TestClient(t *testing.T) {

	s := stack.MockService(t, testPort, "error")

	signerAddr := s.Identity.Address

	time.Sleep(10 * time.Millisecond)
	baseUrl := fmt.Sprintf("http://0.0.0.0%v", s.Service.Server().Addr())

	cl := New(baseUrl)

	ctx := context.Background()

	t.Run("status", func(t *testing.T) {

		stat, err := cl.Status(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if stat.Signer != signerAddr.Hex() {
			t.Fatalf("status signer %v, want %v", stat.Signer, signerAddr.Hex())
		}
	})

	t.Run("health", func(t *testing.T) {

		health, err := cl.Health(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(health.Failures) != 0 {
			t.Fatalf("health failures: %v", health.Failures)
		}
	})

	t.Run("celo balance", func(t *testing.T) {

		bal, err := cl.CeloBalance(ctx, signerAddr)
		if err != nil {
			t.Fatal(err)
		}
		if bal.Balance == "" {
			t.Fatal("empty balance")
		}
	})

	t.Run("token balance before deploy", func(t *testing.T) {

		if _, err := cl.TokenBalance(ctx, signerAddr); err == nil {
			t.Fatal("expected error before any token is deployed")
		}
	})

	var deployTxid string

	t.Run("deploy", func(t *testing.T) {

		deployed, err := cl.DeployToken(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !common.IsHexAddress(deployed.Address) {
			t.Fatalf("deployed address %q", deployed.Address)
		}
		deployTxid = deployed.Txid

		bal, err := cl.TokenBalance(ctx, signerAddr)
		if err != nil {
			t.Fatal(err)
		}
		if bal.Balance != "10000" {
			t.Fatalf("deployer token balance %v, want 10000", bal.Balance)
		}
	})

	t.Run("deploy receipt", func(t *testing.T) {

		receipt, err := cl.TransactionReceipt(ctx, common.HexToHash(deployTxid))
		if err != nil {
			t.Fatal(err)
		}
		if receipt.TxHash.Hex() != deployTxid {
			t.Fatalf("receipt hash %v, want %v", receipt.TxHash.Hex(), deployTxid)
		}
	})

	t.Run("transfer", func(t *testing.T) {

		transfer, err := cl.TransferToken(ctx, recipientAddr, big.NewInt(100))
		if err != nil {
			t.Fatal(err)
		}
		if transfer.Balance != "9900" {
			t.Fatalf("sender balance after transfer %v, want 9900", transfer.Balance)
		}

		bal, err := cl.TokenBalance(ctx, recipientAddr)
		if err != nil {
			t.Fatal(err)
		}
		if bal.Balance != "100" {
			t.Fatalf("recipient balance %v, want 100", bal.Balance)
		}
	})

	t.Run("transfer exceeding balance", func(t *testing.T) {

		_, err := cl.TransferToken(ctx, recipientAddr, big.NewInt(1000000))
		if err == nil {
			t.Fatal("expected transfer to fail")
		}
		if !strings.Contains(err.Error(), "transfer error") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
