// Command devs runs DEVS simulations from the command line.
package main

import (
	"github.com/sarchlab/devs/devs/cmd"
)

func main() {
	cmd.Execute()
}
