package main

import "picoworker_backend/internal/app"

func main() {
	app.Run()
}
