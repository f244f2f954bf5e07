package main

import "github.com/vietddude/dbguard/internal/cli"

func main() {
	cli.Execute()
}
