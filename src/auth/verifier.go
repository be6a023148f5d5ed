// Package auth verifies API keys against the on-chain agent registry. An API
// key is the base58 encoding of a signature; the signer recovered from it is
// checked against the registry's access list for the agent.
package auth

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Caller access levels.
const (
	StatusDenied = 0
	StatusUser   = 1
	StatusOwner  = 2
)

// DefaultRegistryAddress is the agent registry deployment the service talks
// to unless configured otherwise.
const DefaultRegistryAddress = "0x486989cd189ED5DB6f519712eA794Cee42d75b29"

// zeroKeyHash is the message every caller key signs.
const zeroKeyHash = "0x0000000000000000000000000000000000000000000000000000000000000000"

const registryABI = `[
	{"inputs":[{"internalType":"address","name":"caller","type":"address"},{"internalType":"address","name":"agentAddress","type":"address"}],"name":"allowApiCall","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"address","name":"agentAddress","type":"address"}],"name":"isAgentOwned","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"}
]`

// ContractCaller is the slice of ethclient.Client the verifier needs.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Verifier checks API keys against the registry contract.
type Verifier struct {
	caller   ContractCaller
	registry common.Address
	abi      abi.ABI
	log      zerolog.Logger
}

func NewVerifier(caller ContractCaller, registryAddress string, log zerolog.Logger) (*Verifier, error) {
	if registryAddress == "" {
		registryAddress = DefaultRegistryAddress
	}
	if !common.IsHexAddress(registryAddress) {
		return nil, errors.Errorf("auth: invalid registry address %q", registryAddress)
	}
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, errors.Wrap(err, "auth: parse registry abi")
	}
	return &Verifier{
		caller:   caller,
		registry: common.HexToAddress(registryAddress),
		abi:      parsed,
		log:      log,
	}, nil
}

// RecoverAddresses decodes the API key and recovers both candidate signers:
// the caller (who signed the zero hash) and the owner (who signed the
// agent's key hash).
func RecoverAddresses(apiKey, ownerKeyHash string) (caller, owner common.Address, err error) {
	sig, err := base58.Decode(apiKey)
	if err != nil {
		return caller, owner, errors.Wrap(err, "auth: api key is not base58")
	}
	if len(sig) != 65 {
		return caller, owner, errors.Errorf("auth: signature must be 65 bytes, got %d", len(sig))
	}

	normalized := make([]byte, 65)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	caller, err = recoverSigner(zeroKeyHash, normalized)
	if err != nil {
		return caller, owner, err
	}
	owner, err = recoverSigner(ownerKeyHash, normalized)
	if err != nil {
		return caller, owner, err
	}
	return caller, owner, nil
}

func recoverSigner(message string, sig []byte) (common.Address, error) {
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "auth: recover signer")
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Status resolves the caller's access level for the agent: 2 when the
// recovered owner address owns the agent, 1 when the caller is allowed to
// call it, 0 otherwise.
func (v *Verifier) Status(ctx context.Context, agentAddress, apiKey, ownerKeyHash string) (int, common.Address, error) {
	if !common.IsHexAddress(agentAddress) {
		return StatusDenied, common.Address{}, errors.Errorf("auth: invalid agent address %q", agentAddress)
	}
	agent := common.HexToAddress(agentAddress)

	callerAddr, ownerAddr, err := RecoverAddresses(apiKey, ownerKeyHash)
	if err != nil {
		return StatusDenied, common.Address{}, err
	}

	v.log.Debug().
		Str("caller", callerAddr.Hex()).
		Str("owner_candidate", ownerAddr.Hex()).
		Str("agent", agent.Hex()).
		Msg("checking registry access")

	allowed, err := v.readBool(ctx, "allowApiCall", callerAddr, agent)
	if err != nil {
		return StatusDenied, callerAddr, err
	}
	if allowed {
		return StatusUser, callerAddr, nil
	}

	owned, err := v.readBool(ctx, "isAgentOwned", ownerAddr, agent)
	if err != nil {
		return StatusDenied, callerAddr, err
	}
	if owned {
		return StatusOwner, ownerAddr, nil
	}
	return StatusDenied, callerAddr, nil
}

func (v *Verifier) readBool(ctx context.Context, method string, a, b common.Address) (bool, error) {
	input, err := v.abi.Pack(method, a, b)
	if err != nil {
		return false, errors.Wrapf(err, "auth: pack %s", method)
	}
	out, err := v.caller.CallContract(ctx, ethereum.CallMsg{To: &v.registry, Data: input}, nil)
	if err != nil {
		return false, errors.Wrapf(err, "auth: call %s", method)
	}
	results, err := v.abi.Unpack(method, out)
	if err != nil {
		return false, errors.Wrapf(err, "auth: unpack %s", method)
	}
	if len(results) != 1 {
		return false, errors.Errorf("auth: %s returned %d values", method, len(results))
	}
	value, ok := results[0].(bool)
	if !ok {
		return false, errors.Errorf("auth: %s returned non-bool", method)
	}
	return value, nil
}
