// xtype types text from stdin into whichever window has input focus, for
// applications that refuse paste via selection buffers. On X the paste is
// triggered by pressing Enter in the destination window; on Wayland a virtual
// keyboard types after a countdown.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"xtype/countdown"
	"xtype/log"
	"xtype/paste"
)

var version = "dev"

func main() {
	wait := flag.Int("countdown", int(countdown.Default/time.Second),
		"seconds the virtual-keyboard backend waits before typing")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("xtype %s\n", version)
		return
	}

	log.Init(*verbose)

	text, err := readInput()
	if err != nil {
		log.Errorf("reading stdin: %v", err)
		os.Exit(1)
	}
	if text == "" {
		log.Error("nothing to paste: stdin was empty")
		os.Exit(1)
	}

	// Read once; the backend choice holds for the whole process.
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	backend, err := paste.Select(sessionType, time.Duration(*wait)*time.Second)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	if err := paste.Run(backend, text); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// readInput slurps all of stdin and strips trailing carriage returns. The
// buffer must be complete before any synchronization starts, so there is no
// streaming. A short how-to is printed when someone runs the tool
// interactively instead of piping text in.
func readInput() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "xtype: reading the text to paste from stdin; finish with Ctrl-D")
		fmt.Fprintln(os.Stderr, "then press Enter in the destination window (X) or focus it during the countdown (Wayland)")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r"), nil
}
