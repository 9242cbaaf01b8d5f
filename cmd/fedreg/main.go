package main

import (
	_ "github.com/tanpawarit/fedreg-agent/pkg/logger/autoload"
)

func main() {
	Execute()
}
