package main

import "insightdash/internal/app"

func main() {
	app.Execute()
}
