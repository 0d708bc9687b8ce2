package celo

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client exposes the subset of the Celo node JSON-RPC surface needed to
// build, submit and confirm transactions and to run read-only contract
// queries. Celo runs an EVM execution layer, so the go-ethereum client
// speaks its protocol natively.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	ethereum.BlockNumberReader // Used for healthcheck/readiness probe
}

// Dial connects to a single Celo node endpoint.
func Dial(url string) (Client, error) {
	return ethclient.Dial(url)
}

// Multi nodes

var _ Client = (*multiNodeClient)(nil)

type multiNodeClient struct {
	nodes []*item
	mu    sync.RWMutex
}

// item has an id so that when we update a node in the priority list, we are
// sure that the priority list was not updated before
type item struct {
	id     string // id is the position on the config url string
	client Client
}

// NewMultiNodeClient connects to a comma-separated list of Celo node
// endpoints. Requests are served by the first responsive node, responsive
// nodes are promoted towards the front of the priority list.
func NewMultiNodeClient(possibleUrls string, constructor func(url string) (Client, error)) (*multiNodeClient, error) {
	urls := strings.Split(possibleUrls, ",")
	var nodes []*item
	errs := make(map[string]error)
	for i := 0; i < len(urls); i++ {
		url := urls[i]
		var node Client
		n, err := constructor(url)
		node = n
		if err != nil {
			errs[url] = err
			continue
		}
		nodes = append(nodes, &item{
			id:     fmt.Sprintf("%d", len(nodes)),
			client: node,
		})
	}
	if len(nodes) == 0 {
		message := "cannot connect to any nodes"
		for url, err := range errs {
			message = fmt.Sprintf("%s url='%s' err='%s'", message, url, err.Error())
		}
		return nil, errors.New(message)
	}
	return &multiNodeClient{
		nodes: nodes,
	}, nil
}

func (m *multiNodeClient) increaseNodePriority(position int, id string) {
	if position == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nodes[position].id != id {
		return
	}
	m.nodes[position-1], m.nodes[position] = m.nodes[position], m.nodes[position-1]
}

// multiNodeCall is a generic pattern for any request RPC to multiple Celo
// clients that terminates at the first successful request. Any changes to
// node selection or prioritization logic should be made here.
func multiNodeCall[result any, request func() (string, result, error)](m *multiNodeClient, requests []request) (out result, err error) {
	for i := 0; i < len(requests); i++ {
		var id string
		id, out, err = requests[i]()
		if err == nil {
			m.increaseNodePriority(i, id)
			break
		}
	}
	return
}

// snapshot returns the current priority-ordered node list.
func (m *multiNodeClient) snapshot() []*item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	nodes := make([]*item, len(m.nodes))
	copy(nodes, m.nodes)
	return nodes
}

func (m *multiNodeClient) ChainID(ctx context.Context) (*big.Int, error) {
	var requests []func() (string, *big.Int, error)
	for _, node := range m.snapshot() {
		node := node
		requests = append(requests, func() (string, *big.Int, error) {
			res, err := node.client.ChainID(ctx)
			return node.id, res, err
		})
	}
	return multiNodeCall(m, requests)
}

func (m *multiNodeClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var requests []func() (string, *types.Header, error)
	for _, node := range m.snapshot() {
		node := node
		requests = append(requests, func() (string, *types.Header, error) {
			res, err := node.client.HeaderByNumber(ctx, number)
			return node.id, res, err
		})
	}
	return multiNodeCall(m, requests)
}

// BalanceAt prepares a balance query to all nodes in the multiNodeClient set.
func (m *multiNodeClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	var requests []func() (string, *big.Int, error)
	for _, node := range m.snapshot() {
		node := node
		requests = append(requests, func() (string, *big.Int, error) {
			res, err := node.client.BalanceAt(ctx, account, blockNumber)
			return node.id, res, err
		})
	}
	return multiNodeCall(m, requests)
}

func (m *multiNodeClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var requests []func() (string, uint64, error)
	for _, node := range m.snapshot() {
		node := node
		requests = append(requests, func() (string, uint64, error) {
			res, err := node.client.PendingNonceAt(ctx, account)
			return node.id, res, err
		})
	}
	return multiNodeCall(m, requests)
}

func (m *multiNodeClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	var requests []func() (string, *big.Int, error)
	for _, node := range m.snapshot() {
		node := node
		requests = append(requests, func() (string, *big.Int, error) {
			res, err := node.client.SuggestGasTipCap(ctx)
			return node.id, res, err
		})
	}
	return multiNodeCall(m, requests)
}

func (m *multiNodeClient) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	var requests []func() (string, uint64, error)
	for _, node := range m.snapshot() {
		node := node
		requests = append(requests, func() (string, uint64, error) {
			res, err := node.client.EstimateGas(ctx, call)
			return node.id, res, err
		})
	}
	return multiNodeCall(m, requests)
}

func (m *multiNodeClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	var requests []func() (string, struct{}, error)
	for _, node := range m.snapshot() {
		node := node
		requests = append(requests, func() (string, struct{}, error) {
			err := node.client.SendTransaction(ctx, tx)
			return node.id, struct{}{}, err
		})
	}
	_, err := multiNodeCall(m, requests)
	return err
}

func (m *multiNodeClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var requests []func() (string, *types.Receipt, error)
	for _, node := range m.snapshot() {
		node := node
		requests = append(requests, func() (string, *types.Receipt, error) {
			res, err := node.client.TransactionReceipt(ctx, txHash)
			return node.id, res, err
		})
	}
	return multiNodeCall(m, requests)
}

func (m *multiNodeClient) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var requests []func() (string, []byte, error)
	for _, node := range m.snapshot() {
		node := node
		requests = append(requests, func() (string, []byte, error) {
			res, err := node.client.CallContract(ctx, call, blockNumber)
			return node.id, res, err
		})
	}
	return multiNodeCall(m, requests)
}

func (m *multiNodeClient) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	var requests []func() (string, []byte, error)
	for _, node := range m.snapshot() {
		node := node
		requests = append(requests, func() (string, []byte, error) {
			res, err := node.client.CodeAt(ctx, account, blockNumber)
			return node.id, res, err
		})
	}
	return multiNodeCall(m, requests)
}

const blockDiff = 3 // criteria for reporting failure based on two connected clients reporting different block numbers

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

// BlockNumber is used as part of the liveness probe for multiclients and will
// return an error if any of the connected clients report to be syncing.
func (m *multiNodeClient) BlockNumber(ctx context.Context) (uint64, error) {
	var blockheights []uint64
	var errStr string
	nodes := m.snapshot()
	for i := 0; i < len(nodes); i++ {
		node := nodes[i]
		b, err := node.client.BlockNumber(ctx)
		if err != nil {
			errStr += fmt.Sprintf("node %d err: %s|", i, err.Error())
			continue
		}
		blockheights = append(blockheights, b)
		if len(blockheights) > 1 {
			if f, s := blockheights[len(blockheights)-1], blockheights[len(blockheights)-2]; absDiff(f, s) > blockDiff {
				errStr += fmt.Sprintf("nodes %d (%d) and %d (%d) are reporting different chain tips|", i, f, i-1, s)
			}
		}
	}
	if errStr != "" {
		return 0, errors.New(errStr)
	}
	if len(blockheights) == 0 {
		return 0, errors.New("no nodes responded")
	}
	return blockheights[0], nil
}
