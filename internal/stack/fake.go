package stack

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"

	"github.com/darwinzer0/datahub-learn/celo"
	"github.com/darwinzer0/datahub-learn/token"
)

var _ celo.Client = (*FakeChain)(nil)

// FakeChain executes GoldToken semantics in memory against the contract
// ABI. It lets the full deploy/transfer/balance flow run without a node,
// with a couple of not-found polls per receipt to exercise the wait loop.
type FakeChain struct {
	mu       sync.Mutex
	abi      abi.ABI
	balances map[common.Address]*big.Int
	code     map[common.Address][]byte
	receipts map[common.Hash]*types.Receipt
	pending  map[common.Hash]int
	nonce    uint64
	block    uint64
}

// NewFakeChain builds a FakeChain around the embedded GoldToken artifact.
func NewFakeChain() (*FakeChain, error) {
	art, err := token.Artifact()
	if err != nil {
		return nil, err
	}
	return &FakeChain{
		abi:      art.ABI,
		balances: make(map[common.Address]*big.Int),
		code:     make(map[common.Address][]byte),
		receipts: make(map[common.Hash]*types.Receipt),
		pending:  make(map[common.Hash]int),
	}, nil
}

func (f *FakeChain) ChainID(context.Context) (*big.Int, error) { return big.NewInt(44787), nil }

func (f *FakeChain) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.block, nil
}

func (f *FakeChain) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &types.Header{
		Number:  new(big.Int).SetUint64(f.block),
		BaseFee: big.NewInt(params.GWei),
	}, nil
}

func (f *FakeChain) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(params.Ether), nil
}

func (f *FakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce, nil
}

func (f *FakeChain) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(params.GWei), nil
}

func (f *FakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 50000, nil
}

func (f *FakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.block++
	f.nonce = tx.Nonce() + 1

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(f.block),
		GasUsed:     tx.Gas(),
		Logs:        []*types.Log{},
	}

	if tx.To() == nil {
		// contract creation: credit the deployer with the initial balance
		addr := crypto.CreateAddress(sender, tx.Nonce())
		f.code[addr] = common.FromHex("0x60003560e01c806370a0823114601f578063a9059cbb14602d5760006000fd5b506004355460005260206000f35b506024353354808211604b5781810333555060043580548201905550005b60006000fd")
		f.balances[sender] = new(big.Int).Set(token.InitialBalance)
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

func (f *FakeChain) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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

func (f *FakeChain) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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

func (f *FakeChain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code[account], nil
}

// balanceOf reads a token balance, callers hold f.mu.
func (f *FakeChain) balanceOf(holder common.Address) *big.Int {
	if bal, ok := f.balances[holder]; ok {
		return bal
	}
	return new(big.Int)
}
