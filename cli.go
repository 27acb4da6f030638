package kokuin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"github.com/kokuin/kokuin/logging"
)

const (
	// ExitOK for exit code
	ExitOK int = 0

	// ExitErr for exit code
	ExitErr int = 1
)

// Env holds the runtime environment of a CLI invocation.
type Env struct {
	Out, Err io.Writer
	Args     []string
	Version  string
	Commit   string
	Date     string
}

// cli struct
type cli struct {
	env       Env
	command   string
	Manifest  string `long:"manifest" short:"m" arg:"path" description:"Path to the package manifest (default: kokuin.yml)"`
	Source    string `long:"source" short:"s" arg:"url" description:"Base version source URL, overrides the manifest (file://, env://, ghr://, s3://, gs://)"`
	Notify    string `long:"notify" short:"n" arg:"url" description:"Notify URL, overrides the manifest (slack://, mail://)"`
	Interval  int    `long:"interval" short:"i" arg:"seconds" description:"Re-evaluate on an interval and only act when the base version changes"`
	Output    string `long:"output" short:"o" arg:"path" description:"Write the evaluated descriptor to a file instead of stdout"`
	Format    string `long:"format" short:"f" arg:"(json|yaml|text)" description:"Descriptor output format (default: json)"`
	LogLevel  string `long:"log-level" short:"l" arg:"(debug|info|warn|error)" description:"Level displayed as log"`
	LogFormat string `long:"log-format" arg:"(text|json)" description:"Format displayed as log"`
	Help      bool   `long:"help" short:"h" description:"show this help message and exit"`
	Version   bool   `long:"version" short:"v" description:"prints the version number"`
}

// RunCLI runs as CLI
func RunCLI(env Env) int {
	c := &cli{env: env, Interval: -1}
	return c.run()
}

func (c *cli) buildHelp(names []string) []string {
	var help []string
	t := reflect.TypeOf(cli{})

	for _, name := range names {
		f, ok := t.FieldByName(name)
		if !ok {
			continue
		}

		tag := f.Tag
		if tag == "" {
			continue
		}

		var o, a string
		if a = tag.Get("arg"); a != "" {
			a = fmt.Sprintf("=%s", a)
		}
		if s := tag.Get("short"); s != "" {
			o = fmt.Sprintf("-%s, --%s%s", tag.Get("short"), tag.Get("long"), a)
		} else {
			o = fmt.Sprintf("--%s%s", tag.Get("long"), a)
		}

		desc := tag.Get("description")
		if i := strings.Index(desc, "\n"); i >= 0 {
			var buf bytes.Buffer
			buf.WriteString(desc[:i+1])
			desc = desc[i+1:]
			const indent = "                        "
			for {
				if i = strings.Index(desc, "\n"); i >= 0 {
					buf.WriteString(indent)
					buf.WriteString(desc[:i+1])
					desc = desc[i+1:]
					continue
				}
				break
			}
			if len(desc) > 0 {
				buf.WriteString(indent)
				buf.WriteString(desc)
			}
			desc = buf.String()
		}
		help = append(help, fmt.Sprintf("  %-40s %s", o, desc))
	}

	return help
}

func (c *cli) showHelp() {
	opts := strings.Join(c.buildHelp([]string{
		"Manifest",
		"Source",
		"Notify",
		"Interval",
		"Output",
		"Format",
		"LogLevel",
		"LogFormat",
	}), "\n")

	help := `
Usage: kokuin [--version] [--help] command <options>

Commands:
  stamp   Evaluate the descriptor and emit the stamped metadata
  pack    Stamp and archive the package tree

Options:
%s
`
	fmt.Fprintf(c.env.Out, help, opts)
}

func (c *cli) run() int {
	p := flags.NewParser(c, flags.PassDoubleDash)
	args, err := p.ParseArgs(c.env.Args)
	if err != nil || c.Help {
		c.showHelp()
		return ExitErr
	}

	if c.Version {
		fmt.Fprintf(c.env.Err, "kokuin version %s [%v, %v]\n", c.env.Version, c.env.Commit, c.env.Date)
		return ExitOK
	}

	if len(args) == 0 || (args[0] != "stamp" && args[0] != "pack") {
		fmt.Fprintf(c.env.Err, "Error: command is not available\n")
		c.showHelp()
		return ExitErr
	}
	c.command = args[0]

	if c.LogLevel != "" {
		c.LogLevel = strings.ToUpper(c.LogLevel)
	} else {
		c.LogLevel = "ERROR"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	logger := logging.SetupLogger(c.LogLevel, c.LogFormat, c.env.Err)

	conf := DefaultConfig()
	conf.Manifest = c.Manifest
	conf.Source = c.Source
	conf.Notify = c.Notify
	conf.Interval = c.Interval
	conf.Output = c.Output
	if c.Format != "" {
		conf.Format = c.Format
	}
	if c.command == "pack" {
		conf.Command = PACK
	} else {
		conf.Command = STAMP
	}
	conf.OverrideWithEnv()

	k, err := New(conf, c.env.Out, logger)
	if err != nil {
		fmt.Fprintf(c.env.Err, "Error: %s\n", err)
		return ExitErr
	}

	if conf.Interval > 0 {
		Banner(c.env.Err)
		k.Start(conf.Interval)
		return ExitOK
	}

	if err := k.Run(context.Background()); err != nil {
		fmt.Fprintf(c.env.Err, "Error: %s\n", err)
		return ExitErr
	}

	return ExitOK
}
