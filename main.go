package main

import "github.com/timhq/tim/cmd"

func main() {
	cmd.Execute()
}
