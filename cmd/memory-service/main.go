package main

import (
	"os"

	"github.com/esmlabs/extended-memory/memoryservice"
)

func main() {
	if err := memoryservice.Run(); err != nil {
		os.Exit(1)
	}
}
