package vm

import (
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/types"
)

// executionContext is the core.Context a contract receives for one call.
type executionContext struct {
	chain    types.BlockchainContext
	contract core.Address
	sender   core.Address
}

func newExecutionContext(chain types.BlockchainContext, contract, sender core.Address) *executionContext {
	return &executionContext{
		chain:    chain,
		contract: contract,
		sender:   sender,
	}
}

func (c *executionContext) BlockHeight() uint64 {
	return c.chain.BlockHeight()
}

func (c *executionContext) BlockTime() int64 {
	return c.chain.BlockTime()
}

func (c *executionContext) ContractAddress() core.Address {
	return c.contract
}

func (c *executionContext) Sender() core.Address {
	return c.sender
}

func (c *executionContext) Log(eventName string, keyValues ...any) {
	c.chain.Log(c.contract, eventName, keyValues...)
}
