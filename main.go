package main

import "github.com/frahmantamala/tenant-admin/cmd"

func main() {
	cmd.Execute()
}
