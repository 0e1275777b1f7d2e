// Command fw is the FutureWeaver command-line interface.
package main

import "futureweaver/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
