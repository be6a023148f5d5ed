// Package payment gates billable requests behind an on-chain fee transfer.
// The fee moves from the service wallet to the agent owner before the model
// runs; any failure along the way aborts the request rather than serving an
// unpaid generation.
package payment

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Sentinel errors; the HTTP layer maps these to status codes.
var (
	ErrInvalidAddress    = errors.New("payment: invalid address")
	ErrInsufficientFunds = errors.New("payment: insufficient funds")
	ErrTransferFailed    = errors.New("payment: transfer failed")
)

const transferGasLimit = 21000

// Chain is the slice of ethclient.Client the gate needs.
type Chain interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Gate collects per-call fees.
type Gate struct {
	chain  Chain
	key    *ecdsa.PrivateKey
	wallet common.Address
	log    zerolog.Logger
}

func NewGate(chain Chain, privateKeyHex string, log zerolog.Logger) (*Gate, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, errors.Wrap(err, "payment: parse private key")
	}
	return &Gate{
		chain:  chain,
		key:    key,
		wallet: crypto.PubkeyToAddress(key.PublicKey),
		log:    log,
	}, nil
}

// Wallet returns the service wallet address the fees are paid from.
func (g *Gate) Wallet() common.Address { return g.wallet }

// Charge collects feeEther for a call made by caller to an agent owned by
// owner. A zero fee is a no-op. The caller's balance is checked first so an
// underfunded caller is rejected before anything moves.
func (g *Gate) Charge(ctx context.Context, caller common.Address, owner string, feeEther float64) error {
	if feeEther <= 0 {
		return nil
	}
	if !common.IsHexAddress(owner) {
		return errors.Wrapf(ErrInvalidAddress, "owner %q", owner)
	}
	ownerAddr := common.HexToAddress(owner)
	amount := EtherToWei(feeEther)

	balance, err := g.chain.BalanceAt(ctx, caller, nil)
	if err != nil {
		return errors.Wrap(ErrTransferFailed, err.Error())
	}
	if balance.Cmp(amount) < 0 {
		return errors.Wrapf(ErrInsufficientFunds, "caller %s holds %s wei, fee is %s wei",
			caller.Hex(), balance.String(), amount.String())
	}

	nonce, err := g.chain.PendingNonceAt(ctx, g.wallet)
	if err != nil {
		return errors.Wrap(ErrTransferFailed, err.Error())
	}
	gasPrice, err := g.chain.SuggestGasPrice(ctx)
	if err != nil {
		return errors.Wrap(ErrTransferFailed, err.Error())
	}
	chainID, err := g.chain.ChainID(ctx)
	if err != nil {
		return errors.Wrap(ErrTransferFailed, err.Error())
	}

	tx := types.NewTransaction(nonce, ownerAddr, amount, transferGasLimit, gasPrice, nil)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), g.key)
	if err != nil {
		return errors.Wrap(ErrTransferFailed, err.Error())
	}

	if err := g.chain.SendTransaction(ctx, signed); err != nil {
		return errors.Wrap(ErrTransferFailed, err.Error())
	}

	g.log.Info().
		Str("caller", caller.Hex()).
		Str("owner", ownerAddr.Hex()).
		Str("amount_wei", amount.String()).
		Str("tx", signed.Hash().Hex()).
		Msg("fee transferred")
	return nil
}

// EtherToWei converts a decimal ether amount to wei.
func EtherToWei(ether float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(ether), big.NewFloat(1e18)).Int(nil)
	return wei
}
