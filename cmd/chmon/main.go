// Command chmon inspects the addons installed for World of Warcraft and
// reports which of them have updates.
//
// Usage:
//
//	chmon status --dir "/Applications/World of Warcraft" --flavor retail
//	chmon resolve-path "/Applications/World of Warcraft/_classic_/Interface/AddOns"
//	chmon channel Details beta
//	chmon ignore WeakAuras
//
// Configuration is read from CHMON_* environment variables; user settings
// live in settings.toml inside the data directory.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
