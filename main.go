package main

import "github.com/bazlabs/baz/cmd"

func main() {
	cmd.Execute()
}
