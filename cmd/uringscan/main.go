package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kballard/go-shellquote"
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
		procRoot     string
		outputFormat string
		showOps      bool
	)

	cmd := &cobra.Command{
		Use:   "uringscan",
		Short: "uringscan reports io_uring kernel support and which processes hold io_uring resources.",
		Run: func(cmd *cobra.Command, args []string) {
			if outputFormat != "text" && outputFormat != "json" {
				log.Fatalf(`output format must be "text" or "json", got %q`, outputFormat)
			}

			err := run(cmd.Context(), procRoot, outputFormat, showOps)
			if err != nil {
				log.Fatalf("run uringscan: %+v", err)
			}
		},
	}

	cmd.Flags().StringVarP(&procRoot, "proc-root", "p", "", "Path to the proc filesystem (defaults to /proc, set this when scanning a host proc mounted inside a container)")
	cmd.Flags().StringVarP(&outputFormat, "output", "f", "text", "Output format, text or json")
	cmd.Flags().BoolVar(&showOps, "show-ops", false, "Also list the io_uring opcodes the kernel reports as supported")

	return cmd
}

func run(ctx context.Context, procRoot, outputFormat string, showOps bool) error {
	scanner, err := uringscan.New(&uringscan.ScannerOpts{
		ProcRoot: procRoot,
	})
	if err != nil {
		return xerrors.Errorf("create scanner: %w", err)
	}

	res, err := scanner.Scan(ctx)
	if err != nil {
		// Only an unlistable proc filesystem (or cancellation) lands here;
		// per-process failures are absorbed into the result.
		return xerrors.Errorf("scan: %w", err)
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	render(os.Stdout, res, showOps)
	return nil
}

func render(w io.Writer, res *uringscan.ScanResult, showOps bool) {
	fmt.Fprintln(w, "Checking system information...")
	fmt.Fprintf(w, "  Architecture: %s\n", res.System.Architecture)
	fmt.Fprintf(w, "  Kernel Version: %s\n", res.System.KernelRelease)
	fmt.Fprintf(w, "  Node Name: %s\n", res.System.NodeName)
	fmt.Fprintf(w, "  Version: %s\n", res.System.Version)

	if !res.System.MeetsBaseline {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warning: kernel version is below 5.1, which is required for io_uring support")
	}

	fmt.Fprintln(w)
	if !res.Capabilities.Supported {
		fmt.Fprintln(w, "io_uring is not supported on this system.")
		fmt.Fprintln(w, "The kernel may be too old (requires 5.1 or later) or io_uring support may be disabled.")
	} else {
		fmt.Fprintln(w, "io_uring is supported on this system!")
		fmt.Fprintln(w, "Reported io_uring feature flags:")
		if len(res.Capabilities.Features) == 0 {
			fmt.Fprintln(w, "  (no features reported)")
		}
		for _, flag := range res.Capabilities.Features {
			fmt.Fprintf(w, "  - %s\n", flag)
		}

		if showOps && len(res.Capabilities.Ops) > 0 {
			fmt.Fprintln(w, "Supported io_uring operations:")
			for _, op := range res.Capabilities.Ops {
				fmt.Fprintf(w, "  - %s\n", op)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Checking for processes using io_uring...")
	if len(res.Matches) == 0 {
		fmt.Fprintln(w, "No processes using io_uring were found.")
		return
	}

	for _, rec := range res.Matches {
		exe := rec.ExePath
		if exe == "" {
			exe = "unknown"
		}

		fmt.Fprintln(w, "Process using io_uring:")
		fmt.Fprintf(w, "  PID: %d\n", rec.PID)
		fmt.Fprintf(w, "  Name: %s\n", rec.Name)
		fmt.Fprintf(w, "  Executable: %s\n", exe)
		fmt.Fprintf(w, "  Command line: %s\n", shellquote.Join(rec.Cmdline...))
		fmt.Fprintf(w, "  Status: %s\n", statusLine(rec.Backing))
		fmt.Fprintf(w, "  Virtual Memory: %d kB\n", rec.VMSizeKB)
		fmt.Fprintf(w, "  Resident Memory: %d kB\n", rec.VMRSSKB)
	}
}

func statusLine(backing uringscan.BackingState) string {
	switch backing {
	case uringscan.BackingInMemory:
		return "Running in memory"
	case uringscan.BackingOnDisk:
		return "Running from disk"
	default:
		return "Status unknown"
	}
}
