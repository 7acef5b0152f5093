package main

import "github.com/arungoooo112/gismo/cmd"

func main() {
	cmd.Execute()
}
