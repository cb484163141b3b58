package main

import (
	"cascade-engine/interfaces/cli"
)

func main() {
	cli.Execute()
}
