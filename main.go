package main

import "github.com/0x1david/sqint/cmd"

func main() {
	cmd.Execute()
}
