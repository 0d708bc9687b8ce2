package token

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"

	"github.com/darwinzer0/datahub-learn/celo"
	"github.com/darwinzer0/datahub-learn/keys"
)

const testKeyHex = "4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

var recipientAddr = common.HexToAddress("0xfe3b557e8fb62b89f4916b721be55ceb828dbd73")

// fakeChain executes GoldToken semantics in memory against the contract ABI,
// so the full deploy/transfer/balance flow can be tested without a node.
// Receipts become visible only after a couple of polls to exercise the
// receipt wait loop.
type fakeChain struct {
	abi      abi.ABI
	balances map[common.Address]*big.Int
	code     map[common.Address][]byte
	receipts map[common.Hash]*types.Receipt
	pending  map[common.Hash]int // polls remaining before the receipt appears
	nonce    uint64
	block    uint64
}

var _ celo.Client = (*fakeChain)(nil)

func newFakeChain(t *testing.T) *fakeChain {
	t.Helper()
	art, err := Artifact()
	if err != nil {
		t.Fatal(err)
	}
	return &fakeChain{
		abi:      art.ABI,
		balances: make(map[common.Address]*big.Int),
		code:     make(map[common.Address][]byte),
		receipts: make(map[common.Hash]*types.Receipt),
		pending:  make(map[common.Hash]int),
	}
}

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) { return big.NewInt(44787), nil }

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) { return f.block, nil }

func (f *fakeChain) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{
		Number:  new(big.Int).SetUint64(f.block),
		BaseFee: big.NewInt(params.GWei),
	}, nil
}

func (f *fakeChain) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(params.Ether), nil
}

func (f *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeChain) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(params.GWei), nil
}

func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 50000, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return err
	}
	f.block++
	f.nonce = tx.Nonce() + 1

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(f.block),
		GasUsed:     tx.Gas(),
	}

	if tx.To() == nil {
		// contract creation: credit the deployer with the initial balance
		addr := crypto.CreateAddress(sender, tx.Nonce())
		f.code[addr] = common.FromHex("0x60003560e01c806370a0823114601f578063a9059cbb14602d5760006000fd5b506004355460005260206000f35b506024353354808211604b5781810333555060043580548201905550005b60006000fd")
		f.balances[sender] = new(big.Int).Set(InitialBalance)
		receipt.ContractAddress = addr
	} else if data := tx.Data(); len(data) >= 4 {
		method, err := f.abi.MethodById(data[:4])
		if err != nil {
			return err
		}
		if method.Name == "transfer" {
			args, err := method.Inputs.Unpack(data[4:])
			if err != nil {
				return err
			}
			to := args[0].(common.Address)
			amount := args[1].(*big.Int)
			bal := f.balanceOf(sender)
			if bal.Cmp(amount) < 0 {
				receipt.Status = types.ReceiptStatusFailed
			} else {
				f.balances[sender] = new(big.Int).Sub(bal, amount)
				f.balances[to] = new(big.Int).Add(f.balanceOf(to), amount)
			}
		}
	}

	f.receipts[tx.Hash()] = receipt
	f.pending[tx.Hash()] = 2
	return nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, ok := f.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	if f.pending[txHash] > 0 {
		f.pending[txHash]--
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (f *fakeChain) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := f.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	if method.Name != "balanceOf" {
		return nil, errors.New("unexpected call")
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(f.balanceOf(args[0].(common.Address)))
}

func (f *fakeChain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	return f.code[account], nil
}

func (f *fakeChain) balanceOf(holder common.Address) *big.Int {
	if bal, ok := f.balances[holder]; ok {
		return bal
	}
	return new(big.Int)
}

func makeSubmitter(t *testing.T, chain celo.Client, id *keys.Identity) *celo.Submitter {
	t.Helper()
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return celo.NewSubmitter(chain, id, logrus.NewEntry(l),
		celo.WithPollInterval(time.Millisecond),
		celo.WithWaitTimeout(time.Second),
	)
}

func Test_DeployAndTransfer(t *testing.T) {

	id, err := keys.FromHex(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	chain := newFakeChain(t)
	sub := makeSubmitter(t, chain, id)
	ctx := context.Background()

	tok, receipt, err := Deploy(ctx, sub)
	if err != nil {
		t.Fatal(err)
	}
	if receipt.ContractAddress == (common.Address{}) {
		t.Fatal("deployment receipt has no contract address")
	}

	t.Run("initial balance", func(t *testing.T) {
		bal, err := tok.BalanceOf(ctx, id.Address)
		if err != nil {
			t.Fatal(err)
		}
		if bal.Cmp(InitialBalance) != 0 {
			t.Fatalf("deployer balance %v, want %v", bal, InitialBalance)
		}
	})

	t.Run("transfer", func(t *testing.T) {
		if _, err := tok.Transfer(ctx, recipientAddr, big.NewInt(100)); err != nil {
			t.Fatal(err)
		}

		bal, err := tok.BalanceOf(ctx, id.Address)
		if err != nil {
			t.Fatal(err)
		}
		if want := big.NewInt(9900); bal.Cmp(want) != 0 {
			t.Fatalf("deployer balance after transfer %v, want %v", bal, want)
		}

		got, err := tok.BalanceOf(ctx, recipientAddr)
		if err != nil {
			t.Fatal(err)
		}
		if want := big.NewInt(100); got.Cmp(want) != 0 {
			t.Fatalf("recipient balance %v, want %v", got, want)
		}
	})
}

func Test_Transfer_Reverted(t *testing.T) {

	id, err := keys.FromHex(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	chain := newFakeChain(t)
	sub := makeSubmitter(t, chain, id)
	ctx := context.Background()

	tok, _, err := Deploy(ctx, sub)
	if err != nil {
		t.Fatal(err)
	}

	// more than the deployer holds
	_, err = tok.Transfer(ctx, recipientAddr, big.NewInt(20000))
	if err == nil {
		t.Fatal("expected transfer to fail")
	}
	if !strings.Contains(err.Error(), "reverted") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func Test_Deploy_NoIdentity(t *testing.T) {

	chain := newFakeChain(t)
	sub := makeSubmitter(t, chain, nil)

	if _, _, err := Deploy(context.Background(), sub); !errors.Is(err, celo.ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}
