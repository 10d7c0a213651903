package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/maxvaer/gobauto/internal/config"
	"github.com/maxvaer/gobauto/internal/gobuster"
	"github.com/maxvaer/gobauto/internal/runner"
	"github.com/maxvaer/gobauto/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var opts config.Options

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"mode", "url", "urls-file", "cidr", "ports", "wordlist"}},
	{"GOBUSTER", []string{"binary", "threads", "extra", "invocation", "timeout"}},
	{"MATCHERS", []string{"success-only", "include-status", "match"}},
	{"FILTERS", []string{"exclude"}},
	{"OUTPUT", []string{"output", "format", "quiet", "no-color", "on-result"}},
	{"CONFIGURATION", []string{"config", "resume-file", "debug"}},
}

var rootCmd = &cobra.Command{
	Use:     "gobauto -m <mode> -u <target> -w <wordlist> [flags] [-- gobuster args]",
	Short:   "Run gobuster with whichever argument style the installed version accepts",
	Version: version.Version,
	Long: `gobauto runs the locally installed gobuster in dir, dns or vhost mode.
It first tries the positional form ("gobuster dir -u ..."), and if the binary
rejects it, retries once with the older flag form ("gobuster -m dir -u ...").
Every attempted command line is echoed before it runs.`,
	Example: `  gobauto -u https://example.com -w common.txt
  gobauto -m dns -u example.com -w subdomains.txt -t 50
  gobauto -u https://example.com -w common.txt -s -i 200,301,403
  gobauto -u https://example.com -w common.txt --invocation flag
  gobauto -l targets.txt -w common.txt -o results.json --format json
  gobauto --cidr 10.0.0.0/28 --ports 80,8080 -w common.txt --resume-file run.state
  gobauto -u https://example.com -w common.txt -- -x php,html -k
  cat words.txt | gobauto -u https://example.com -w -
  gobauto -u https://example.com -w common.txt --on-result "notify-send {target} {state}"
  gobauto doctor
  gobauto mcp --transport sse --addr :8000`,
	Args: cobra.ArbitraryArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Positional arguments are only accepted after "--".
		before := cmd.ArgsLenAtDash()
		if before < 0 {
			before = len(args)
		}
		if before > 0 {
			return fmt.Errorf("unexpected argument %q (pass gobuster arguments after --)", args[0])
		}
		if err := loadConfig(cmd); err != nil {
			return err
		}
		if opts.URL == "" && opts.URLsFile == "" && opts.CIDRTargets == "" {
			_ = cmd.Help()
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("target required: use -u, -l or --cidr")
		}
		if opts.WordlistPath == "" {
			return fmt.Errorf("wordlist required: use -w (or -w - for stdin)")
		}
		if _, err := gobuster.ParseMode(opts.Mode); err != nil {
			return err
		}
		if _, err := gobuster.ParsePreference(opts.Invocation); err != nil {
			return err
		}
		switch opts.OutputFormat {
		case "text", "json", "csv":
		default:
			return fmt.Errorf("--format must be one of: text, json, csv")
		}
		if opts.Threads <= 0 {
			return fmt.Errorf("--threads must be positive")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts.ExtraArgs = append(opts.ExtraArgs, args...)
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.Run(ctx, &opts, runner.Env{Logger: slog.Default()})
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.Binary, "binary", gobuster.DefaultBinary, "gobuster executable name or path")
	pf.StringVar(&opts.ConfigFile, "config", "", "YAML file with flag defaults (default: $XDG_CONFIG_HOME/gobauto/config.yaml)")
	pf.BoolVar(&opts.Debug, "debug", false, "Log every attempt with structured fields to stderr")
	pf.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")

	f := rootCmd.Flags()

	// Target
	f.StringVarP(&opts.Mode, "mode", "m", string(gobuster.ModeDir), "gobuster mode: dir, dns, vhost")
	f.StringVarP(&opts.URL, "url", "u", "", "Target URL (dir, vhost) or domain (dns)")
	f.StringVarP(&opts.URLsFile, "urls-file", "l", "", "File with one target per line")
	f.StringVar(&opts.CIDRTargets, "cidr", "", "CIDR range to scan in dir/vhost mode (e.g. 192.168.1.0/24)")
	f.StringVar(&opts.Ports, "ports", "", "Ports for CIDR targets (comma-separated, e.g. 80,443,8080)")
	f.StringVarP(&opts.WordlistPath, "wordlist", "w", "", "Wordlist path, or - to read from stdin")

	// gobuster
	f.IntVarP(&opts.Threads, "threads", "t", gobuster.DefaultThreads, "gobuster thread count")
	f.StringArrayVar(&opts.ExtraArgs, "extra", nil, "Extra gobuster argument (repeatable, appended last)")
	f.StringVar(&opts.Invocation, "invocation", string(gobuster.PreferAuto), "Argument style: auto, legacy, flag")
	f.DurationVar(&opts.Timeout, "timeout", 0, "Kill gobuster after this long per target (0 = no limit)")

	// Stream filtering
	f.BoolVarP(&opts.SuccessOnly, "success-only", "s", false, "Only show lines whose status code is allowed")
	f.VarP(&intSliceValue{target: &opts.IncludeStatus}, "include-status", "i", "Allowed status codes (comma-separated, implies -s; default 200,204,301,302,307,403)")
	f.StringVar(&opts.Match, "match", "", "Only show lines containing this string")
	f.StringVar(&opts.Exclude, "exclude", "", "Hide lines containing this string")

	// Output
	f.StringVarP(&opts.OutputFile, "output", "o", "", "Export file path")
	f.StringVar(&opts.OutputFormat, "format", "text", "Export format: text, json, csv")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Only echo commands and gobuster output")

	// Hooks
	f.StringVar(&opts.OnResultCmd, "on-result", "", "Shell command to run per scan (receives JSON on stdin)")

	// Resume
	f.StringVar(&opts.ResumeFile, "resume-file", "", "File recording finished targets so an interrupted run can resume")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger(opts.Debug)
	}

	// Custom help: categorized flags.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			fmt.Fprint(os.Stderr, cmd.UsageString())
			return
		}
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nCommands:\n")
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				fmt.Fprintf(w, "   %-36s%s\n", sub.Name(), sub.Short)
			}
		}
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				fl := cmd.Flags().Lookup(name)
				if fl == nil {
					fl = cmd.PersistentFlags().Lookup(name)
				}
				if fl != nil {
					fmt.Fprintln(w, formatFlag(fl))
				}
			}
		}
		fmt.Fprintln(w)
	})

	rootCmd.AddCommand(mcpCmd, doctorCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig applies the YAML config file under the flags the user set.
func loadConfig(cmd *cobra.Command) error {
	path, err := config.Resolve(&opts, cmd.Flags().Changed)
	if err != nil {
		return err
	}
	if path != "" {
		slog.Debug("loaded config file", "path", path)
	}
	return nil
}

// setupLogger installs the process-wide slog handler. Operator output does
// not go through slog, so the default level only lets warnings through.
func setupLogger(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// intSliceValue implements pflag.Value for comma-separated int slices.
type intSliceValue struct {
	target *[]int
}

func (v *intSliceValue) String() string {
	if v.target == nil || len(*v.target) == 0 {
		return ""
	}
	parts := make([]string, len(*v.target))
	for i, val := range *v.target {
		parts[i] = strconv.Itoa(val)
	}
	return strings.Join(parts, ",")
}

func (v *intSliceValue) Set(s string) error {
	parts := strings.Split(s, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid status code %q: %w", p, err)
		}
		if n < 100 || n > 999 {
			return fmt.Errorf("invalid status code %d", n)
		}
		*v.target = append(*v.target, n)
	}
	return nil
}

func (v *intSliceValue) Type() string { return "ints" }

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
                __                   __
   ____ _____  / /_  ____ ___  __/ /_____
  / __ '/ __ \/ __ \/ __ '/ / / / __/ __ \
 / /_/ / /_/ / /_/ / /_/ / /_/ / /_/ /_/ /
 \__, /\____/_.___/\__,_/\__,_/\__/\____/   %s
/____/

`, ver)
}
