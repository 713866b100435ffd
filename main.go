package main

import "media-store/cmd"

func main() {
	cmd.Execute()
}
