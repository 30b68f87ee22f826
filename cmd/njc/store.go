package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nightjar-mud/nightjar/manifest"
	"github.com/nightjar-mud/nightjar/pkg/bytecode"
	"github.com/nightjar-mud/nightjar/store"
)

// openStore locates the artifact database through the nearest nightjar.toml,
// falling back to .nightjar/artifacts.db in the working directory.
func openStore() *store.Store {
	dbPath := filepath.Join(".nightjar", "artifacts.db")

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if m != nil {
		dbPath = m.StorePath()
		log.Debugf("using store %s from manifest in %s", dbPath, m.Dir)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	return s
}

// handleStoreCommand processes the `njc store` subcommands.
func handleStoreCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: njc store <put|get|ls|rm> [arguments]")
		os.Exit(1)
	}

	s := openStore()
	defer s.Close()

	switch args[0] {
	case "put":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "Usage: njc store put <path> <image.njbc>")
			os.Exit(1)
		}
		fn := loadImage(args[2])
		digest, err := s.Put(args[1], fn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error storing %s: %v\n", args[1], err)
			os.Exit(1)
		}
		fmt.Printf("%s %s\n", digest[:12], args[1])

	case "get":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "Usage: njc store get <path> <out.njbc>")
			os.Exit(1)
		}
		fn, err := s.Get(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching %s: %v\n", args[1], err)
			os.Exit(1)
		}
		image, err := bytecode.EncodeImage(fn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding %s: %v\n", args[1], err)
			os.Exit(1)
		}
		if err := os.WriteFile(args[2], image, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", args[2], err)
			os.Exit(1)
		}

	case "ls":
		entries, err := s.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing artifacts: %v\n", err)
			os.Exit(1)
		}
		for _, e := range entries {
			fmt.Printf("%s %6d %s\n", e.Digest[:12], e.Size, e.Path)
		}

	case "rm":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: njc store rm <path>")
			os.Exit(1)
		}
		if err := s.Delete(args[1]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "njc: %s not in store\n", args[1])
			} else {
				fmt.Fprintf(os.Stderr, "Error removing %s: %v\n", args[1], err)
			}
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "njc: unknown store command %q\n", args[0])
		os.Exit(1)
	}
}
