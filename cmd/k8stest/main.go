package main

import (
	"github.com/signalfx/agent-test-harness/pkg/cli"
)

func main() {
	cli.Execute()
}
