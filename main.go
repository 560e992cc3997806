package main

import "AudioEditor/cmd"

func main() {
	cmd.Execute()
}
