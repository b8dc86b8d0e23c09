package greet

import "github.com/govm-net/greeter/core"

func Greet(ctx core.Context, name string) string {
	go ctx.Log("Greeted", "name", name)
	return name
}
