// Package main is the entry point for the dotacoach CLI, which turns a
// finished Dota 2 match into a short coaching report for one player.
package main

import "github.com/pable/dota-coach/cmd"

func main() {
	cmd.Execute()
}
