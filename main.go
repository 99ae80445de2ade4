package main

import "github.com/katarogu/katarogu/cmd"

func main() {
	cmd.Execute()
}
