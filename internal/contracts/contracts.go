package contracts

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/compose-network/validator-bootstrap/internal/errs"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type ContractName string

const (
	ContractNameValidatorWalletCreator ContractName = "ValidatorWalletCreator"
	ContractNameInbox                  ContractName = "Inbox"

	eventWalletCreated = "WalletCreated"
	methodCreateWallet = "createWallet"
	methodDepositEth   = "depositEth"
)

// Only the parts of the interfaces used during the bootstrap are declared.
const (
	ValidatorWalletCreatorABI = `[
	{"type":"function","name":"createWallet","inputs":[],"outputs":[{"name":"","type":"address","internalType":"address"}],"stateMutability":"nonpayable"},
	{"type":"event","name":"WalletCreated","inputs":[
		{"name":"walletAddress","type":"address","indexed":true,"internalType":"address"},
		{"name":"userAddress","type":"address","indexed":true,"internalType":"address"},
		{"name":"adminProxy","type":"address","indexed":false,"internalType":"address"}
	],"anonymous":false}
]`

	InboxABI = `[
	{"type":"function","name":"depositEth","inputs":[{"name":"maxSubmissionCost","type":"uint256","internalType":"uint256"}],"outputs":[{"name":"","type":"uint256","internalType":"uint256"}],"stateMutability":"payable"}
]`
)

var (
	validatorWalletCreatorABI = mustParse(ValidatorWalletCreatorABI)
	inboxABI                  = mustParse(InboxABI)

	// WalletCreatedID is topic 0 of the WalletCreated event.
	WalletCreatedID = validatorWalletCreatorABI.Events[eventWalletCreated].ID
)

// WalletCreated is the decoded WalletCreated event. Field order follows the event arguments.
type WalletCreated struct {
	WalletAddress common.Address
	UserAddress   common.Address
	AdminProxy    common.Address
}

func mustParse(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid built-in ABI: %v", err))
	}
	return parsed
}

// ValidatorWalletCreator returns the parsed creator ABI.
func ValidatorWalletCreator() abi.ABI {
	return validatorWalletCreatorABI
}

// Inbox returns the parsed inbox ABI.
func Inbox() abi.ABI {
	return inboxABI
}

// CreateWalletCalldata packs ValidatorWalletCreator.createWallet().
func CreateWalletCalldata() ([]byte, error) {
	data, err := validatorWalletCreatorABI.Pack(methodCreateWallet)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", methodCreateWallet, err)
	}
	return data, nil
}

// DepositEthCalldata packs Inbox.depositEth(maxSubmissionCost).
func DepositEthCalldata(maxSubmissionCost *big.Int) ([]byte, error) {
	data, err := inboxABI.Pack(methodDepositEth, maxSubmissionCost)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", methodDepositEth, err)
	}
	return data, nil
}

// ParseWalletCreated finds the WalletCreated event emitted by creator in the receipt. Logs are
// matched by emitter and topic signature, scanning backwards so that the last match wins;
// logs from inner construction are ignored.
func ParseWalletCreated(receipt *types.Receipt, creator common.Address) (WalletCreated, error) {
	var ev WalletCreated
	if receipt == nil {
		return ev, &errs.ParseError{What: "WalletCreated event", Err: errors.New("nil receipt")}
	}

	bound := bind.NewBoundContract(creator, validatorWalletCreatorABI, nil, nil, nil)
	for i := len(receipt.Logs) - 1; i >= 0; i-- {
		log := receipt.Logs[i]
		if log == nil || log.Address != creator || len(log.Topics) == 0 || log.Topics[0] != WalletCreatedID {
			continue
		}

		if err := bound.UnpackLog(&ev, eventWalletCreated, *log); err != nil {
			return WalletCreated{}, &errs.ParseError{What: "WalletCreated event", Err: err}
		}

		return ev, nil
	}

	return ev, &errs.ParseError{
		What: "WalletCreated event",
		Err:  fmt.Errorf("no log from %s in receipt %s (%d logs)", creator, receipt.TxHash, len(receipt.Logs)),
	}
}

// WalletCreatedLog builds a log as emitted by the creator. Used to fabricate receipts.
func WalletCreatedLog(creator, wallet, user, adminProxy common.Address) (*types.Log, error) {
	data, err := validatorWalletCreatorABI.Events[eventWalletCreated].Inputs.NonIndexed().Pack(adminProxy)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s data: %w", eventWalletCreated, err)
	}

	return &types.Log{
		Address: creator,
		Topics: []common.Hash{
			WalletCreatedID,
			common.BytesToHash(wallet.Bytes()),
			common.BytesToHash(user.Bytes()),
		},
		Data: data,
	}, nil
}
