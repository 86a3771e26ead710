package main

import "github.com/icco/beatgrid/cmd"

func main() {
	cmd.Execute()
}
