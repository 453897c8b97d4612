package main

import "github.com/pfrederiksen/fixtures-ics/internal/cli"

func main() {
	cli.Execute()
}
