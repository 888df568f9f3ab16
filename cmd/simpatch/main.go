// filepath: cmd/simpatch/main.go
package main

import "simpatch/internal/cli"

func main() {
	// Delegate all execution to the CLI package
	cli.Execute()
}
