package main

import "github.com/itish2003/voicerag/cli"

func main() {
	cli.Execute()
}
