package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/uringscan/uringscan"
)

func main() {
	err := rootCmd().Execute()
	if err != nil {
		log.Fatalf("failed to run command: %+v", err)
	}
}

func rootCmd() *cobra.Command {
	var (
		entries    uint32
		duration   time.Duration
		mappedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "uringspawn",
		Short: "uringspawn holds a real io_uring instance open so detection can be validated against a live process.",
		Run: func(cmd *cobra.Command, args []string) {
			err := run(entries, duration, mappedOnly)
			if err != nil {
				log.Fatalf("run uringspawn: %+v", err)
			}
		},
	}

	cmd.Flags().Uint32VarP(&entries, "entries", "e", 32, "Submission queue depth for the ring")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 30*time.Second, "How long to hold the ring before exiting")
	cmd.Flags().BoolVar(&mappedOnly, "mapped-only", false, "Close the ring fd immediately and keep only the ring mappings, exercising mapping-based detection")

	return cmd
}

func run(entries uint32, duration time.Duration, mappedOnly bool) error {
	ring, err := uringscan.NewRing(entries)
	if err != nil {
		return xerrors.Errorf("create ring: %w", err)
	}
	defer ring.Close()

	if mappedOnly {
		err = ring.ReleaseFD()
		if err != nil {
			return xerrors.Errorf("release ring fd: %w", err)
		}
		log.Printf("pid %d holds io_uring ring mappings only (fd closed)", os.Getpid())
	} else {
		log.Printf("pid %d holds io_uring fd %d", os.Getpid(), ring.FD())
	}
	log.Printf("holding for %s, run uringscan in another terminal (interrupt to exit early)", duration)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(duration):
	case sig := <-signals:
		log.Printf("signal %v received, exiting", sig)
	}

	return nil
}
