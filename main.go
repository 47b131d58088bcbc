package main

import "github.com/mager/harmonyhub/cmd"

func main() {
	cmd.Execute()
}
