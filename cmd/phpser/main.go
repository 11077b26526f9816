package main

import "github.com/acolita/phpwire/internal/cli"

func main() {
	cli.Execute()
}
