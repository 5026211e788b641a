package main

import "github.com/frahmantamala/admission-portal/cmd"

func main() {
	cmd.Execute()
}
