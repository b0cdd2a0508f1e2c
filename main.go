package main

import "github.com/kamusis/answerhub/cmd"

func main() {
	cmd.Execute()
}
