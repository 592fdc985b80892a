package main

import "github.com/frahmantamala/rsms-admin/cmd"

func main() {
	cmd.Execute()
}
