package main

import "github.com/robert-malhotra/go-minc/cmd/minc2json/cmd"

func main() {
	cmd.Execute()
}
