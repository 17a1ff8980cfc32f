package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			postCmd("snapshot", os.Args[2:])
			return
		case "reset":
			postCmd("reset", os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints engine ids found under <data>/engines, or the contents of
// one engine directory when -engine is set.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	engineID := fs.String("engine", "", "engine id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "engines")
	if *engineID != "" {
		base = filepath.Join(base, *engineID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}
