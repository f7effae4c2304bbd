package main

import "github.com/civiclist/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
