package main

import "github.com/bayou-stats/bayou/cmd"

func main() {
	cmd.Execute()
}
