package main

import "github.com/unikv/unikv/cmd"

func main() {
	cmd.Execute()
}
