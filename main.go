package main

import "github.com/ValentinKolb/recfs/cmd"

func main() {
	cmd.Execute()
}
