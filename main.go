package main

import "agridata-labs/soil-scout/cmd"

func main() {
	cmd.Execute()
}
