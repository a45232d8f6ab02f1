package main

import "dirmetrics/src/handler/cli"

func main() {
	cli.Run()
}
