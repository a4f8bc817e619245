package main

import "github.com/dploch/geofront/internal/cli"

func main() {
	cli.Execute()
}
