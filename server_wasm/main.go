// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"navalsim"
	"log"
)

func main() {
	hub := server.NewHub(server.HubOptions{
		Cloud:            server.Offline{},
		MinClients:       20,
		MaxBotSpawnLevel: 3,
	})

	log.Println("https://navalsim.example WASM server started")

	hub.Register(&localClient)

	hub.Run()
}
