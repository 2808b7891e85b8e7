package main

import "github.com/collegemail/idverify/cmd/idverify/cmd"

func main() {
	cmd.Execute()
}
