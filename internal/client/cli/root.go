package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	a.mu.Lock()
	name := a.userName
	a.mu.Unlock()

	s := ""
	if name != "" {
		s = name + " "
	}
	if a.isLoggedIn() {
		s += string(a.mode())
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root prints the banner, prompts for login, starts the connectivity
// watcher and runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	a.println("Welcome to gokigen (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.watcher.Run(ctx, a.config.OnlineCheckInterval)

	_ = a.Login(ctx)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
