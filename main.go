package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/asmitswain/portfolio/cmd"
)

func main() {
	cmd.Execute()
}
