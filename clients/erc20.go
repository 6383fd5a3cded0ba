package clients

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Minimal ERC-20 surface: enough for transfer broadcasting and balance reads.
const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

type erc20 struct {
	address common.Address
	abi     abi.ABI
	client  *ethclient.Client
}

func newERC20(address string, client *ethclient.Client) (*erc20, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	return &erc20{
		address: common.HexToAddress(address),
		abi:     parsed,
		client:  client,
	}, nil
}

// PackTransfer builds the calldata for transfer(to, amount).
func (e *erc20) PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return e.abi.Pack("transfer", to, amount)
}

// BalanceOf reads the token balance of owner in base units.
func (e *erc20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	data, err := e.abi.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}

	out, err := e.client.CallContract(ctx, ethereum.CallMsg{
		To:   &e.address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, err
	}

	results, err := e.abi.Unpack("balanceOf", out)
	if err != nil {
		return nil, err
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf return type %T", results[0])
	}
	return balance, nil
}
