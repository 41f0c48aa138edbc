package main

import "github.com/renderlabs/photopipe/cmd"

func main() {
	cmd.Execute()
}
