package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/maxvaer/gobauto/internal/toolcheck"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Report the gobuster binary on PATH and its version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if opts.NoColor {
			color.NoColor = true
		}
		if err := loadConfig(cmd); err != nil {
			return err
		}

		s := toolcheck.NewChecker().Check(context.Background(), opts.Binary)
		if !s.Installed {
			color.New(color.FgRed).Fprintf(os.Stderr, "[!] %s: not found in PATH\n", s.Binary)
			return fmt.Errorf("%s is not installed", s.Binary)
		}

		ver := s.Version
		if ver == "" {
			ver = "version unknown"
		}
		color.New(color.FgGreen).Fprintf(os.Stderr, "[+] %s: %s (%s)\n", s.Binary, s.Path, ver)
		fmt.Fprintln(os.Stderr, "[*] The argument style is detected per scan; the version above is informational only.")
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}
