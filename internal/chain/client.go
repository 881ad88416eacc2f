// Package chain is the JSON-RPC client for the event ledger contract.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ZeroDocHash is the placeholder content-integrity hash sent with every event.
var ZeroDocHash [32]byte

// Call is one logEvent invocation.
type Call struct {
	Tag         string
	EventType   string
	PayloadJSON string
}

// Confirmation describes a mined logEvent transaction.
type Confirmation struct {
	TxHash      string
	BlockNumber uint64
	// LedgerEventID is the id assigned by the contract, empty when the
	// EventLogged notification could not be found in the receipt.
	LedgerEventID string
}

// Options configures Dial.
type Options struct {
	// HTTPClient overrides the transport used for JSON-RPC over HTTP.
	HTTPClient *http.Client
}

// Backend is the node access a Client needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ethereum.BlockNumberReader
	ethereum.ChainIDReader
}

// Client talks to a single ledger contract deployment.
type Client struct {
	eth      Backend
	closer   func()
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract

	mu      sync.Mutex
	chainID *big.Int
}

// ParseABI returns the parsed ledger contract ABI.
func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(ledgerABI))
}

// Dial connects to the JSON-RPC endpoint at url for the contract at address.
func Dial(ctx context.Context, url, address string, opts Options) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("rpc url cannot be empty")
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}

	var dialOpts []rpc.ClientOption
	if opts.HTTPClient != nil {
		dialOpts = append(dialOpts, rpc.WithHTTPClient(opts.HTTPClient))
	}

	rc, err := rpc.DialOptions(ctx, url, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	eth := ethclient.NewClient(rc)
	c, err := NewClient(eth, common.HexToAddress(address))
	if err != nil {
		eth.Close()
		return nil, err
	}
	c.closer = eth.Close
	return c, nil
}

// NewClient binds the contract at address on an existing backend. Closing the
// returned Client leaves the backend open.
func NewClient(backend Backend, address common.Address) (*Client, error) {
	parsed, err := ParseABI()
	if err != nil {
		return nil, fmt.Errorf("parse ledger abi: %w", err)
	}

	return &Client{
		eth:      backend,
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the checksummed contract address.
func (c *Client) Address() string {
	return c.address.Hex()
}

// BlockNumber returns the most recent block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return n, nil
}

func (c *Client) networkID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	c.chainID = id
	return id, nil
}

// Submit signs logEvent with key and broadcasts it. The nonce is taken from
// the pending state, so callers sharing a key must serialize Submit.
func (c *Client) Submit(ctx context.Context, key *ecdsa.PrivateKey, call Call) (*types.Transaction, error) {
	chainID, err := c.networkID(ctx)
	if err != nil {
		return nil, err
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("create transactor: %w", err)
	}
	opts.Context = ctx

	tx, err := c.contract.Transact(opts, methodLogEvent, call.Tag, call.EventType, call.PayloadJSON, ZeroDocHash)
	if err != nil {
		return nil, fmt.Errorf("send logEvent: %w", err)
	}
	return tx, nil
}

// Confirm blocks until tx is mined and checks that it succeeded.
func (c *Client) Confirm(ctx context.Context, tx *types.Transaction) (*Confirmation, error) {
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}

	conf := &Confirmation{TxHash: tx.Hash().Hex()}
	if receipt.BlockNumber != nil {
		conf.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if id, ok := c.ledgerEventID(receipt.Logs); ok {
		conf.LedgerEventID = id
	}
	return conf, nil
}

// eventLogged mirrors the EventLogged notification.
type eventLogged struct {
	Id          *big.Int
	Tag         string
	EventType   string
	Timestamp   *big.Int
	Submitter   common.Address
	PayloadJson string
	DocHash     [32]byte
}

var errNotEventLogged = errors.New("not an EventLogged notification")

func (c *Client) decodeEventLogged(l types.Log) (*eventLogged, error) {
	if l.Address != c.address || len(l.Topics) == 0 || l.Topics[0] != c.abi.Events[eventEventLogged].ID {
		return nil, errNotEventLogged
	}
	var ev eventLogged
	if err := c.contract.UnpackLog(&ev, eventEventLogged, l); err != nil {
		return nil, fmt.Errorf("unpack EventLogged: %w", err)
	}
	return &ev, nil
}

func (c *Client) ledgerEventID(logs []*types.Log) (string, bool) {
	for _, l := range logs {
		if l == nil {
			continue
		}
		ev, err := c.decodeEventLogged(*l)
		if err != nil || ev.Id == nil {
			continue
		}
		return ev.Id.String(), true
	}
	return "", false
}

// Close releases the RPC connection.
func (c *Client) Close() error {
	if c.closer != nil {
		c.closer()
	}
	return nil
}
