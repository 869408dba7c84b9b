package main

import "github.com/oshokin/dist-check/cmd/dist-agent/cmd"

func main() {
	cmd.Execute()
}
