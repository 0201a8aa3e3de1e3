package main

import (
	"bulletin-board/bot"
	"bulletin-board/command"
	"bulletin-board/handlers"
)

func main() {
	bot.Run(handlers.Register, command.GetCommandDefinitions())
}
