package main

import "github.com/diogo/supportchat/internal/commands"

func main() {
	commands.Execute()
}
