package main

import "github.com/papapumpkin/acreage/cmd"

func main() {
	cmd.Execute()
}
