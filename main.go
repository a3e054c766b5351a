package main

import "dating-api/cmd"

func main() {
	cmd.Run()
}
