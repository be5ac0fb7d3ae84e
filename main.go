// Package main is the entry point for the courtgraph CLI tool, which rebuilds
// NBA play-by-play streams into a temporal graph of lineup and player stints.
package main

import "github.com/pable/go-courtgraph/cmd"

func main() {
	cmd.Execute()
}
