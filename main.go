package main

import "github.com/fieldwise/bridge/cmd"

func main() {
	cmd.Execute()
}
