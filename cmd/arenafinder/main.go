/*
arenafinder probes the lmarena.ai chat with a fixed prompt until one of the
responses matches a search pattern.

Have a look at the README.md for more information.
*/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jakopako/arenafinder/internal/browser"
	"github.com/jakopako/arenafinder/internal/config"
	"github.com/jakopako/arenafinder/internal/finder"
	"github.com/jakopako/arenafinder/internal/log"
	"github.com/jakopako/arenafinder/internal/match"
	"github.com/jakopako/arenafinder/internal/output"
	"github.com/jakopako/arenafinder/internal/types"
)

var version = "dev"

type VersionFlag string

func (v VersionFlag) Decode(_ *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                       { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

type cli struct {
	Version VersionFlag `short:"v" long:"version" help:"Print the version and exit."`
	Debug   bool        `short:"d" long:"debug" help:"Set log level to 'debug' and store screenshots and html of unsuccessful attempts."`

	Run          RunCmd          `cmd:"" default:"withargs" help:"Probe the chat until a response matches the search pattern (default)."`
	CreateConfig CreateConfigCmd `cmd:"" help:"Write the default configuration to a file and exit."`
	Check        CheckCmd        `cmd:"" help:"Check the responses of a saved html page against the search pattern."`
}

type RunCmd struct {
	Config     string `short:"c" default:"${config}" help:"Path to the configuration file. Defaults are used if it does not exist." type:"path"`
	Headless   bool   `help:"Run the browser in headless mode."`
	Summary    bool   `short:"s" help:"Print a summary of all attempts at the end."`
	ResultFile string `short:"o" help:"Also write the result as json to this file." type:"path"`
}

func (r *RunCmd) Run() error {
	cfg, err := config.Load(r.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	matcher, err := match.NewMatcher(cfg.SearchPattern)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := browser.Connect(ctx, browser.Options{
		Headless:  r.Headless,
		Proxy:     cfg.Proxy,
		Timeout:   cfg.Timeout(),
		TargetURL: cfg.TargetURL,
		Prompt:    cfg.UserPrompt,
		DebugDir:  cfg.DebugDir,
	}, matcher)
	if err != nil {
		if ctx.Err() != nil {
			slog.Info("interrupted by user")
			return nil
		}
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn(fmt.Sprintf("error closing browser: %v", err))
		}
	}()

	report, runErr := finder.New(session, cfg.RetryOnNoMatch).Run(ctx)

	result := &output.Result{Attempts: report.Statuses}
	if report.Found {
		result.Match = &types.MatchReport{
			Pattern:    matcher.Pattern(),
			TargetURL:  cfg.TargetURL,
			Attempts:   report.Attempts,
			BlockIndex: report.Result.Index,
			Preview:    report.Result.Preview,
			Response:   report.Result.Text,
			FoundAt:    time.Now(),
		}
	}
	writer := output.NewWriter(&output.WriterConfig{Summary: r.Summary, FilePath: r.ResultFile})
	if err := writer.Write(result); err != nil {
		slog.Error(fmt.Sprintf("%v", err))
	}

	if runErr != nil {
		slog.Error(fmt.Sprintf("%v", runErr))
		return runErr
	}
	return nil
}

type CreateConfigCmd struct {
	Config string `short:"c" default:"${config}" help:"The file the default configuration is written to. Written as yaml if the name ends with .yml or .yaml." type:"path"`
	Stdout bool   `short:"o" help:"Print the default configuration instead of writing it to a file."`
}

func (c *CreateConfigCmd) Run() error {
	if c.Stdout {
		cfg := config.Default()
		data, err := cfg.Marshal(c.Config)
		if err != nil {
			slog.Error(fmt.Sprintf("error while marshalling. %v", err))
			return err
		}
		fmt.Print(string(data))
		return nil
	}
	if err := config.WriteDefault(c.Config); err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	slog.Info(fmt.Sprintf("created default config at %s", c.Config))
	return nil
}

type CheckCmd struct {
	Config   string `short:"c" default:"${config}" help:"Path to the configuration file containing the search pattern." type:"path"`
	HTML     string `long:"html" help:"The saved html page, eg. a file written in debug mode." required:"" type:"existingfile"`
	Selector string `default:"${selector}" help:"CSS selector of the response blocks."`
}

func (c *CheckCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	matcher, err := match.NewMatcher(cfg.SearchPattern)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}

	f, err := os.Open(c.HTML)
	if err != nil {
		slog.Error(fmt.Sprintf("error opening file: %v", err))
		return err
	}
	defer f.Close()

	blocks, err := match.BlocksFromHTML(f, c.Selector)
	if err != nil {
		slog.Error(fmt.Sprintf("error parsing html: %v", err))
		return err
	}
	slog.Info(fmt.Sprintf("found %d responses in %s", len(blocks), c.HTML))

	res, err := matcher.CheckResponses(blocks)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	if !res.Matched {
		slog.Info("no match found")
		return nil
	}
	return output.NewWriter(&output.WriterConfig{}).Write(&output.Result{
		Match: &types.MatchReport{
			Pattern:    matcher.Pattern(),
			Attempts:   1,
			BlockIndex: res.Index,
			Preview:    res.Preview,
			Response:   res.Text,
			FoundAt:    time.Now(),
		},
	})
}

func getVersion() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
			return buildInfo.Main.Version
		}
	}
	return version
}

func main() {
	cli := cli{
		Version: VersionFlag(getVersion()),
	}

	ctx := kong.Parse(&cli,
		kong.Name("arenafinder"),
		kong.Description("Find a model on lmarena.ai by matching its responses against a pattern."),
		kong.Vars{
			"version":  string(cli.Version),
			"config":   config.DefaultPath,
			"selector": match.DefaultSelector,
		})

	log.Debug = cli.Debug
	log.InitializeDefaultLogger()

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
