package main

import "github.com/pthomas-44/nextbus/cmd"

func main() {
	cmd.Execute()
}
