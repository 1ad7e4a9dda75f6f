package main

import "stakevault/internal/server"

func main() {
	server.SetLogger("stakevault-api.log")
	server.ApiInit()
}
