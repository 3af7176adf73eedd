package main

import "github.com/gaurav-prasanna/mht2html/cmd"

func main() {
	cmd.Execute()
}
