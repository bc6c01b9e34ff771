// Package main is the entry point for the kjsbundle CLI.
package main

import "kjsbundle.dev/pkg/kjsbundle/cmd"

func main() {
	cmd.Execute()
}
