package main

import (
	"os"

	"github.com/yuyuyu0706/quiz-practice/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
