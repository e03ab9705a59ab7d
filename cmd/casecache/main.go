package main

import (
	"github.com/bornholm/casecache/internal/command"
	"github.com/bornholm/casecache/internal/command/account"
	"github.com/bornholm/casecache/internal/command/connectivity"
	"github.com/bornholm/casecache/internal/command/document"
	"github.com/bornholm/casecache/internal/command/gate"

	// Connectivity signals
	_ "github.com/bornholm/casecache/internal/adapter/probe"
)

func main() {
	command.Main(
		"casecache",
		"Offline document cache and credit ledger",
		document.Command(),
		account.Command(),
		gate.Command(),
		connectivity.Command(),
	)
}
