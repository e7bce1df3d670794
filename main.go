package main

import "github.com/tanakon8529/micro-ai-chatbot/cmd"

func main() {
	cmd.Execute()
}
