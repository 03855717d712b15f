package main

import "github.com/unievent/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
