package main

import (
	"github.com/mothmailer/mothmailer/app"
	rootcmd "github.com/mothmailer/mothmailer/cmd"
)

func main() {
	rootcmd.Run(&app.CLI{}, "mothmailer", app.Description, app.Vars())
}
