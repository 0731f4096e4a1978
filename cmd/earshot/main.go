package main

import (
	"fmt"
	"os"

	"earshot/internal/control"
	"earshot/internal/daemon"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := &cobra.Command{
		Use:   "earshot",
		Short: "earshot: speech recognition sessions with auto-restart and transcript sinks",
		Long: `earshot keeps a speech recognition session running over a pluggable engine
(replay script, whisper.cpp, Azure Speech), de-duplicates interim results, restarts
the session when the engine ends, and forwards final transcripts to hooks, NATS,
or desktop notifications.

Key commands:
  start|stop|restart|serve   Daemon lifecycle
  status [--json]            Session state + last transcripts
  session start|stop         Pause or resume listening in the daemon
  listen [--opt key=value]   Foreground session printing every event
  transcribe <wav>           Whisper over a WAV file
  mic list|set               Select microphone
  models list|download|set   Manage whisper.cpp models
  service install|uninstall|status   launchd (macOS) or systemd user unit
  doctor|health|tail-log|test-hook|config show`,
		Example: `  earshot listen --engine replay --opt interimResults=true
  earshot start --engine whisper --metrics-addr 127.0.0.1:9318
  earshot session stop
  earshot models download ggml-base.en.bin
  earshot service install --env EARSHOT_LANG=en-US
  earshot test-hook "lights on"`,
		DisableFlagsInUseLine: true,
	}

	root.Version = version
	root.SetVersionTemplate("earshot v{{.Version}}\n")

	cfgPath := root.PersistentFlags().StringP("config", "c", "", "Path to config file (TOML). Defaults to ~/.config/earshot/config.toml")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(daemon.NewStartCmd(cfgPath))
	root.AddCommand(daemon.NewStopCmd(cfgPath))
	root.AddCommand(daemon.NewRestartCmd(cfgPath))
	root.AddCommand(daemon.NewServeCmd(cfgPath))
	root.AddCommand(control.NewStatusCmd(cfgPath))
	root.AddCommand(control.NewHealthCmd(cfgPath))
	root.AddCommand(control.NewSessionCmd(cfgPath))
	root.AddCommand(control.NewListenCmd(cfgPath))
	root.AddCommand(control.NewTranscribeCmd(cfgPath))
	root.AddCommand(control.NewTailLogCmd(cfgPath))
	root.AddCommand(control.NewTestHookCmd(cfgPath))
	root.AddCommand(control.NewDoctorCmd(cfgPath))
	root.AddCommand(control.NewMicCmd(cfgPath))
	root.AddCommand(control.NewModelsCmd(cfgPath))
	root.AddCommand(control.NewServiceCmd(cfgPath))
	root.AddCommand(control.NewConfigCmd(cfgPath))

	applyColorHelp(root)

	return root.Execute()
}

func applyColorHelp(root *cobra.Command) {
	const (
		boldBlue = "\033[1;34m"
		green    = "\033[32m"
		bold     = "\033[1m"
		dim      = "\033[2m"
		reset    = "\033[0m"
	)
	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != root {
			defaultHelp(cmd, args)
			return
		}
		out := cmd.OutOrStdout()
		write := func(format string, args ...any) { _, _ = fmt.Fprintf(out, format, args...) }
		writeln := func(line string) { _, _ = fmt.Fprintln(out, line) }

		write("%searshot%s: speech recognition sessions %s(v%s)%s\n", boldBlue, reset, dim, version, reset)
		write("%sRuns an engine, keeps it listening, and forwards what it hears.%s\n\n", dim, reset)

		write("%sUsage%s\n", bold, reset)
		write("  earshot [command] [flags]\n\n")

		write("%sNotable flags & env%s\n", bold, reset)
		writeln("  -c, --config <path>     config file (default ~/.config/earshot/config.toml)")
		writeln("  --engine <kind>         start/serve/listen: replay, whisper, azure")
		writeln("  --metrics-addr <addr>   start/serve: enable /metrics (Prometheus)")
		writeln("  Env: EARSHOT_ENGINE, EARSHOT_LANG, EARSHOT_AUTO_RESTART=0, EARSHOT_DEBUG=1,")
		writeln("       EARSHOT_METRICS_ADDR, EARSHOT_LOG_LEVEL, EARSHOT_LOG_FORMAT=json,")
		writeln("       EARSHOT_NATS_URL, AZURE_SPEECH_KEY, AZURE_SPEECH_REGION")
		writeln("")

		write("%sExamples%s\n", bold, reset)
		writeln(cmd.Example)
		writeln("")

		write("%sCommands%s\n", bold, reset)
		for _, c := range cmd.Commands() {
			if c.Hidden {
				continue
			}
			write("  %s%-12s%s %s\n", green, c.Name(), reset, c.Short)
		}
	})
}
