package main

import "github.com/questkeep/questkeep/internal/cli"

func main() {
	cli.Execute()
}
