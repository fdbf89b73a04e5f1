package main

import "github.com/atessier/docport/cmd"

func main() {
	cmd.Execute()
}
