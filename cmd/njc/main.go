// Nightjar bytecode tool - inspects and stores compiled function artifacts.
package main

import (
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/nightjar-mud/nightjar/pkg/bytecode"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("njc")

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: njc <command> [arguments]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  info <image.njbc>       Print artifact metadata\n")
	fmt.Fprintf(os.Stderr, "  disasm <image.njbc>     Print a bytecode listing\n")
	fmt.Fprintf(os.Stderr, "  store put <path> <image.njbc>   Store an artifact\n")
	fmt.Fprintf(os.Stderr, "  store get <path> <out.njbc>     Fetch an artifact\n")
	fmt.Fprintf(os.Stderr, "  store ls                        List stored artifacts\n")
	fmt.Fprintf(os.Stderr, "  store rm <path>                 Remove an artifact\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	fmt.Fprintf(os.Stderr, "  -v    Verbose output\n")
	fmt.Fprintf(os.Stderr, "\nThe store commands locate the artifact database through the\n")
	fmt.Fprintf(os.Stderr, "nearest nightjar.toml, or fall back to .nightjar/artifacts.db.\n")
}

func main() {
	args := os.Args[1:]

	verbosity := 0
	filtered := args[:0:0]
	for _, arg := range args {
		if arg == "-v" || arg == "--verbose" {
			verbosity = 1
			continue
		}
		filtered = append(filtered, arg)
	}
	args = filtered
	commonlog.Configure(verbosity, nil)

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	switch args[0] {
	case "info":
		handleInfoCommand(args[1:])
	case "disasm":
		handleDisasmCommand(args[1:])
	case "store":
		handleStoreCommand(args[1:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "njc: unknown command %q\n\n", args[0])
		usage()
		os.Exit(1)
	}
}

// loadImage reads and decodes an artifact image file.
func loadImage(path string) *bytecode.Function {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	fn, err := bytecode.DecodeImage(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", path, err)
		os.Exit(1)
	}
	log.Debugf("decoded %s: %d code bytes, %d constants", path, fn.CodeLen(), fn.ConstantCount())
	return fn
}

func handleInfoCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: njc info <image.njbc>")
		os.Exit(1)
	}
	fn := loadImage(args[0])

	fmt.Printf("code:      %d bytes\n", fn.CodeLen())
	fmt.Printf("constants: %d\n", fn.ConstantCount())
	fmt.Printf("locals:    %d\n", fn.NumLocals)
	fmt.Printf("varargs:   %v\n", fn.Varargs)
}

func handleDisasmCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: njc disasm <image.njbc>")
		os.Exit(1)
	}
	fn := loadImage(args[0])
	fmt.Print(fn.DisassembleWithName(args[0]))
}
