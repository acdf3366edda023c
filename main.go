package main

import "github.com/massivemarketmanager/ms-go-trading/cmd"

func main() {
	cmd.Execute()
}
