package main

import (
	"cdstash/cmd"
)

func main() {
	cmd.Execute()
}
