package main

import "github.com/oshokin/catpoint/cmd/catpoint-cli/cmd"

func main() {
	cmd.Execute()
}
