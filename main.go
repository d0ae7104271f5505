package main

import "github.com/nextlevelbuilder/turngate/cmd"

func main() {
	cmd.Execute()
}
