package main

import "github.com/maxvaer/gobauto/cmd"

func main() {
	cmd.Execute()
}
