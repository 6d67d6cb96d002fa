package main

import (
	"log"
)

// Build details injected with -ldflags.
var (
	GitCommit string
	GitTag    string
	BuildTime string
)

//	@title			Bookshelf API
//	@version		1.0
//	@description	Search the open library catalog and keep a personal shelf of books.
//	@BasePath		/
func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatal("bookshelf failed to initialize: ", err)
	}
	if err = app.Run(); err != nil {
		log.Fatal("bookshelf exited. check logs for more details: ", err)
	}
}
