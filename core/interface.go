// Package core defines what a contract sees of the host.
// Contract authors only need the types in this package.
package core

import (
	"encoding/hex"
	"errors"
	"strings"
)

// Address is an account or contract address.
type Address [20]byte

// Hash identifies a block or transaction.
type Hash [32]byte

var ZeroAddress = Address{}
var ZeroHash = Hash{}

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrContractNotFound  = errors.New("contract not found")
	ErrFunctionNotFound  = errors.New("function not found")
	ErrExecutionReverted = errors.New("execution reverted")
)

func (addr Address) String() string {
	return hex.EncodeToString(addr[:])
}

// AddressFromString decodes a hex address, with or without 0x prefix.
// Invalid input yields ZeroAddress; short input is left-aligned.
func AddressFromString(str string) Address {
	b, err := hex.DecodeString(strings.TrimPrefix(str, "0x"))
	if err != nil {
		return ZeroAddress
	}
	var addr Address
	copy(addr[:], b)
	return addr
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func HashFromString(str string) Hash {
	b, err := hex.DecodeString(strings.TrimPrefix(str, "0x"))
	if err != nil {
		return ZeroHash
	}
	var h Hash
	copy(h[:], b)
	return h
}

// Context is the execution context handed to every contract call.
// Its lifetime is owned by the host and ends when the call returns.
type Context interface {
	BlockHeight() uint64      // current block height
	BlockTime() int64         // current block timestamp
	ContractAddress() Address // address of the running contract
	Sender() Address          // transaction sender or calling contract

	Log(eventName string, keyValues ...any) // emit an event
}

// Handler decodes JSON params and runs one contract entry point.
type Handler func(ctx Context, params []byte) (any, error)
