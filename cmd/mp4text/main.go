package main

import (
	"mp4text/cmd/mp4text/cmd"
)

func main() {
	cmd.Execute()
}
