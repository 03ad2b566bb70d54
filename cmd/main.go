package main

import (
	"github.com/theblitlabs/parity-stake/cmd/cli"
)

func main() {
	cli.Execute()
}
