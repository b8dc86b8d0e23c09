package events

import "github.com/govm-net/greeter/core"

func Greet(ctx core.Context, name string, times int) (string, error) {
	ctx.Log("Greeted", "name", name, "times", times)
	return name, nil
}

func Names(ctx core.Context) ([]string, int) {
	return nil, 0
}

func Ping() {}

func helper() {}

type T struct{}

func (T) Method() {}
