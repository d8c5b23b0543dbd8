package main

import (
	"github.com/nwb-archive/gonwb/gonwb/cmd"
)

func main() {
	cmd.Execute()
}
