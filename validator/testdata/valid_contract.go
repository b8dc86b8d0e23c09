package greet

import (
	"github.com/govm-net/greeter/core"
)

// Greet returns a greeting for name
func Greet(ctx core.Context, name string) []string {
	ctx.Log("Greeted", "name", name)
	return []string{"Hi", name}
}

// Shout is going to greet loudly
func Shout(ctx core.Context, names []string) []string {
	out := make([]string, 0, len(names)+1)
	out = append(out, "HEY")
	for _, name := range names {
		out = append(out, name)
	}
	return out
}
