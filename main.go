package main

import "github.com/reachtim/sitetasks/cmd"

func main() {
	cmd.Execute()
}
