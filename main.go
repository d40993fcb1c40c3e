package main

import "asset-pipeline/cmd"

func main() {
	cmd.Execute()
}
