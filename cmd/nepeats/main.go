package main

import "nepeats/cmd/nepeats/commands"

func main() {
	commands.Execute()
}
