package hello

import (
	_ "embed"

	"github.com/govm-net/greeter/core"
)

// Source is the contract source the host extracts the ABI from.
//
//go:embed hello.go
var Source []byte

var contractFunctions = map[string]core.Handler{}

func registerContractFunction(name string, handler core.Handler) {
	contractFunctions[name] = handler
}

// Functions returns a copy of the entry point dispatch table.
func Functions() map[string]core.Handler {
	out := make(map[string]core.Handler, len(contractFunctions))
	for name, handler := range contractFunctions {
		out[name] = handler
	}
	return out
}
