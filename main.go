package main

import (
	"context"
	"os"

	"task-manager-web/utilities"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		utilities.LogError(err, "taskweb")
		os.Exit(1)
	}
}
