package main

import "github.com/servicesaver/servicesaver/internal/cli"

func main() {
	cli.Execute()
}
