/*
Copyright 2025 Pitwall Labs
*/

package main

import "github.com/pitwall-labs/f1-strategy-manager-go/cmd"

func main() {
	cmd.Execute()
}
