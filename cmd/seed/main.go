package main

import "github.com/denzelpenzel/tours/cmd/seed/commands"

func main() {
	commands.Execute()
}
