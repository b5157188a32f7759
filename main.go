package main

import "rulecheck/cmd"

func main() {
	cmd.Execute()
}
