package main

import "design-localizer/internal/cli"

func main() {
	cli.Execute()
}
