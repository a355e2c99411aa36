// main.go
package main

import "vidgif/cmd"

func main() {
	cmd.Execute()
}
