package main

import "github.com/killallgit/oracle/cmd"

func main() {
	cmd.Execute()
}
