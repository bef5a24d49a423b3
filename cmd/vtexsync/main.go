package main

import "vtex-sync/internal/cli"

func main() {
	cli.Execute()
}
