package main

import "stakevault/internal/server"

func main() {
	server.SetLogger("stakevault-worker.log")
	server.WorkerInit()
}
