package main

import (
	"github.com/matjam/wlcore/internal/cli"
)

func main() {
	cli.Execute()
}
