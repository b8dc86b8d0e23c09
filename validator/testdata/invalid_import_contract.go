package greet

import (
	"fmt"

	"github.com/govm-net/greeter/core"
)

func Greet(ctx core.Context, name string) string {
	return fmt.Sprintf("Hello %s", name)
}
