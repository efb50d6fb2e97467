package main

import (
	"github.com/dannyallover/llm-forecasting/pkg/cli"
)

func main() {
	cli.Execute()
}
