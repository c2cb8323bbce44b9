package main

import "github.com/ukydev/triptap-rides/internal/cli"

func main() {
	cli.Execute()
}
