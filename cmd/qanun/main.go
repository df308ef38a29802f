// Command qanun is the CLI entry point.
package main

import "github.com/qanun-labs/qanun-cli/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
