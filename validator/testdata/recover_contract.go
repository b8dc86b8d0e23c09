package greet

import "github.com/govm-net/greeter/core"

func Greet(ctx core.Context, name string) (out string) {
	defer func() {
		recover()
	}()
	return name
}
