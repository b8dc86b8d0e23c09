// Package hello implements the greeter contract.
package hello

import "github.com/govm-net/greeter/core"

// Greeting is the first element of every result.
const Greeting = "Hello"

// Hello returns the greeting followed by name. The context is accepted
// but never read, and name is passed through byte for byte.
func Hello(ctx core.Context, name string) []string {
	return []string{Greeting, name}
}
