package greet

import (
	"github.com/govm-net/greeter/core"
)

type Greeter struct{}

func (g *Greeter) Greet(ctx core.Context) string {
	return "Hello"
}

func greet(ctx core.Context) string {
	return "Hello"
}
