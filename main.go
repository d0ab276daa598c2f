package main

import "github.com/deploymenttheory/go-judim/cmd"

func main() {
	cmd.Execute()
}
