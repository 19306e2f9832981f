package main

import cmd "github.com/rohmanhakim/botlist-cache/internal/cli"

func main() {
	cmd.Execute()
}
