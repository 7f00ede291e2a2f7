// Command main asks a running survey service to reopen its log file after
// the file has been rotated externally.
//
//	go run . <pid>
package main

import (
	"log"
	"os"
	"strconv"
	"syscall"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatal("usage: reopen-log <pid>")
	}
	pid, err := strconv.Atoi(os.Args[1])
	if err != nil || pid <= 0 {
		log.Fatalf("invalid pid %q", os.Args[1])
	}

	if err := syscall.Kill(pid, syscall.SIGHUP); err != nil {
		log.Fatal("Failed to send SIGHUP:", err)
	}
	log.Printf("SIGHUP sent to %d", pid)
}
