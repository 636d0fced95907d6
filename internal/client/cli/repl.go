package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	Write(ctx context.Context, args []string) error
	Empathy(ctx context.Context) error
	Reformulate(ctx context.Context, args []string) error
	Save(ctx context.Context) error
	List(ctx context.Context) error
	More(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	DeleteAll(ctx context.Context) error
	Move(ctx context.Context, args []string) error
	Trend(ctx context.Context) error
	Quota(ctx context.Context) error
	Plan(ctx context.Context) error
	Sync(ctx context.Context) error
	Export(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, login, exit"
	helpLoggedIn  = "Available commands: write [mood], empathy, reformulate [purpose audience tone], save, " +
		"(l)ist, more, edit <n>, delete <n>, deleteall, move <from> <to>, trend, quota, plan, sync, " +
		"export <file> | export remote <file>, logout, exit"
)

// runREPL reads commands from scanner until EOF, "exit" or "quit".
//
// The first token selects the command; the rest are its arguments. Journal
// commands are refused until the user has logged in. Errors returned by
// handlers are ignored here: handlers print their own messages so the loop
// stays focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("gokigen %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue
		case "register":
			_ = a.Register(ctx)
			continue
		case "login":
			_ = a.Login(ctx)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		if !a.isLoggedIn() {
			if isJournalCommand(cmd) {
				printlnFn("Please log in first.")
			} else {
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "write":
			_ = a.Write(ctx, args)
		case "empathy":
			_ = a.Empathy(ctx)
		case "reformulate":
			_ = a.Reformulate(ctx, args)
		case "save":
			_ = a.Save(ctx)
		case "l", "list":
			_ = a.List(ctx)
		case "more":
			_ = a.More(ctx)
		case "edit":
			_ = a.Edit(ctx, args)
		case "delete":
			_ = a.Delete(ctx, args)
		case "deleteall":
			_ = a.DeleteAll(ctx)
		case "move":
			_ = a.Move(ctx, args)
		case "trend":
			_ = a.Trend(ctx)
		case "quota":
			_ = a.Quota(ctx)
		case "plan":
			_ = a.Plan(ctx)
		case "sync":
			_ = a.Sync(ctx)
		case "export":
			_ = a.Export(ctx, args)
		case "logout":
			_ = a.Logout(ctx)
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func isJournalCommand(cmd string) bool {
	switch cmd {
	case "write", "empathy", "reformulate", "save", "l", "list", "more", "edit", "delete",
		"deleteall", "move", "trend", "quota", "plan", "sync", "export", "logout":
		return true
	}
	return false
}
