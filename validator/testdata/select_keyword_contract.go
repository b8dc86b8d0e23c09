package greet

import "github.com/govm-net/greeter/core"

func Greet(ctx core.Context, name string) string {
	ch := make(chan string, 1)
	ch <- name
	select {
	case n := <-ch:
		return n
	default:
		return ""
	}
}
