package clients

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/flarepay/paylink/types"
	"github.com/flarepay/paylink/utils"
)

const (
	defaultConfirmTimeout = 90 * time.Second
	defaultPollInterval   = 2 * time.Second
	fallbackGasLimit      = 100_000
)

var (
	_ LedgerClient   = (*EVMClient)(nil)
	_ AccountService = (*EVMClient)(nil)
)

// EVMClient signs and broadcasts ERC-20 transfers on a Flare-family network
// and answers account queries for the signing address.
type EVMClient struct {
	network        types.Network
	rpcURL         string
	client         *ethclient.Client
	token          *erc20
	tokenInfo      types.TokenInfo
	key            *ecdsa.PrivateKey
	sender         common.Address
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// NewEVMClient dials the RPC endpoint and prepares the signer. hexKey is the
// sender's private key in hex, with or without the 0x prefix.
func NewEVMClient(network types.Network, rpcURL string, token types.TokenInfo, hexKey string) (*EVMClient, error) {
	if rpcURL == "" {
		rpcURL = network.DefaultRPCURL()
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to EVM RPC: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signing key: %w", err)
	}

	tok, err := newERC20(token.Address, client)
	if err != nil {
		return nil, err
	}

	return &EVMClient{
		network:        network,
		rpcURL:         rpcURL,
		client:         client,
		token:          tok,
		tokenInfo:      token,
		key:            key,
		sender:         crypto.PubkeyToAddress(key.PublicKey),
		confirmTimeout: defaultConfirmTimeout,
		pollInterval:   defaultPollInterval,
	}, nil
}

func (e *EVMClient) Network() types.Network {
	return e.network
}

func (e *EVMClient) Close() {
	e.client.Close()
}

// BroadcastTransfer implements LedgerClient.
func (e *EVMClient) BroadcastTransfer(ctx context.Context, recipient, amount string) (string, error) {
	if err := utils.ValidateAddress(recipient); err != nil {
		return "", ledgerError(CauseRejected, err.Error(), err)
	}

	value, err := utils.ParseAmountWithDecimals(amount, e.tokenInfo.Decimals)
	if err != nil {
		return "", ledgerError(CauseRejected, err.Error(), err)
	}

	chainID, err := e.client.ChainID(ctx)
	if err != nil {
		return "", ledgerError(CauseBroadcastFailed, "failed to query chain id", err)
	}
	if want := e.network.ChainID(); want != 0 && chainID.Int64() != want {
		return "", ledgerError(CauseNetworkMismatch,
			fmt.Sprintf("connected chain id %d, expected %d for %s", chainID.Int64(), want, e.network), nil)
	}

	nonce, err := e.client.PendingNonceAt(ctx, e.sender)
	if err != nil {
		return "", ledgerError(CauseBroadcastFailed, "failed to fetch nonce", err)
	}

	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", ledgerError(CauseBroadcastFailed, "failed to fetch gas price", err)
	}

	data, err := e.token.PackTransfer(common.HexToAddress(recipient), value)
	if err != nil {
		return "", ledgerError(CauseBroadcastFailed, "failed to encode transfer", err)
	}

	gasLimit, err := e.client.EstimateGas(ctx, ethereum.CallMsg{
		From: e.sender,
		To:   &e.token.address,
		Data: data,
	})
	if err != nil {
		// Nodes reject estimation for transfers that would revert; surface
		// the common case as insufficient funds, otherwise fall back.
		if isInsufficientFunds(err) {
			return "", ledgerError(CauseInsufficientFunds, "insufficient token balance for transfer", err)
		}
		gasLimit = fallbackGasLimit
	}

	tx := ethtypes.NewTransaction(nonce, e.token.address, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), e.key)
	if err != nil {
		return "", ledgerError(CauseRejected, "failed to sign transaction", err)
	}

	if err := e.client.SendTransaction(ctx, signed); err != nil {
		if isInsufficientFunds(err) {
			return "", ledgerError(CauseInsufficientFunds, "insufficient funds for transfer", err)
		}
		return "", ledgerError(CauseBroadcastFailed, "failed to broadcast transaction", err)
	}

	return signed.Hash().Hex(), nil
}

// AwaitConfirmation polls for the receipt until mined or the confirmation
// window ends. A mined-but-reverted transfer yields Success=false.
func (e *EVMClient) AwaitConfirmation(ctx context.Context, txRef string) (*types.Receipt, error) {
	if err := utils.ValidateTxHash(txRef); err != nil {
		return nil, ledgerError(CauseRejected, err.Error(), err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	hash := common.HexToHash(txRef)
	var receipt *ethtypes.Receipt

	poll := backoff.WithContext(backoff.NewConstantBackOff(e.pollInterval), waitCtx)
	err := backoff.Retry(func() error {
		r, err := e.client.TransactionReceipt(waitCtx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return err // not mined yet, keep polling
			}
			return backoff.Permanent(err)
		}
		receipt = r
		return nil
	}, poll)
	if err != nil {
		if waitCtx.Err() != nil {
			return nil, ledgerError(CauseConfirmationTimedOut,
				fmt.Sprintf("transaction %s not confirmed within %s", txRef, e.confirmTimeout), err)
		}
		return nil, ledgerError(CauseBroadcastFailed, "failed to fetch receipt", err)
	}

	out := &types.Receipt{
		TxRef:    txRef,
		BlockRef: receipt.BlockNumber.Int64(),
		Success:  receipt.Status == ethtypes.ReceiptStatusSuccessful,
	}
	if !out.Success {
		out.Reason = "transaction reverted on chain"
	}
	return out, nil
}

// GetBalance implements AccountService: the signing address's token balance as
// a display-unit decimal string.
func (e *EVMClient) GetBalance(ctx context.Context) (string, error) {
	balance, err := e.token.BalanceOf(ctx, e.sender)
	if err != nil {
		return "", ledgerError(CauseBroadcastFailed, "failed to query token balance", err)
	}
	return utils.FormatAmountFromBigInt(balance, e.tokenInfo.Decimals), nil
}

// GetCurrentAddress implements AccountService.
func (e *EVMClient) GetCurrentAddress(context.Context) (string, error) {
	return e.sender.Hex(), nil
}

func isInsufficientFunds(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "insufficient funds") ||
		strings.Contains(msg, "insufficient balance") ||
		strings.Contains(msg, "transfer amount exceeds balance")
}
