package main

import "github.com/slacknotify/slacknotify/cmd"

func main() {
	cmd.Execute()
}
