package main

import "github.com/vxkade/uipilot/cmd"

func main() {
	cmd.Execute()
}
