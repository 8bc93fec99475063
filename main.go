// ABOUTME: Entry point for the lanes CLI
// ABOUTME: Hands control to the cobra command tree
package main

import "github.com/harperreed/lanes/cmd"

func main() {
	cmd.Execute()
}
