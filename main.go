package main

import "github.com/backoffice-crm/backoffice-crm/cmd"

func main() {
	cmd.Execute()
}
