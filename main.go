package main

import "github.com/mholecy/photo-triage/cmd"

func main() {
	cmd.Execute()
}
