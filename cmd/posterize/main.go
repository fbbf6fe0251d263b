package main

import "github.com/MeKo-Tech/posterize/internal/cmd"

func main() {
	cmd.Execute()
}
