package main

import "github.com/oshokin/dist-check/cmd/dist-check/cmd"

func main() {
	cmd.Execute()
}
