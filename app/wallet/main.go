package main

import "github.com/fulcrumchain/fulcrum/app/wallet/cmd"

func main() {
	cmd.Execute()
}
