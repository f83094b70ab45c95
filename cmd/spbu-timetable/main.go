package main

import "github.com/pfrederiksen/spbu-timetable/internal/cli"

func main() {
	cli.Execute()
}
