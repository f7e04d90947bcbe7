package main

import (
	"fmt"

	"github.com/stratastor/diskwiper/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
	}
}
