package main

import (
	"github.com/sergev/wwvb/cmd"

	// Receivers register themselves
	_ "github.com/sergev/wwvb/serialrx"
	_ "github.com/sergev/wwvb/usbrx"
)

func main() {
	cmd.Execute()
}
