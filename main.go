package main

import "EPESPO-inventario/cmd"

func main() {
	cmd.Execute()
}
