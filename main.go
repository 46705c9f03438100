package main

import "github.com/logredact/logredact/cmd/logredact"

func main() {
	logredact.Execute()
}
