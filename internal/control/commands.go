package control

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"earshot/internal/config"
	"earshot/internal/doctor"
	"earshot/internal/logging"
	"earshot/internal/service"
	"earshot/internal/sink"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// NewStatusCmd queries daemon status.
func NewStatusCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			var status Status
			if err := Call(cfg.Paths.SocketPath, Request{Op: OpStatus}, &status); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(status)
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output JSON")
	return cmd
}

func printStatus(w io.Writer, status Status) {
	s := status.Session
	fmt.Fprintf(w, "running: %v\nuptime: %.1fs\nengine: %s\n", status.Running, status.UptimeSec, status.Engine)
	fmt.Fprintf(w, "session: %s active=%v manual_stopped=%v\n", s.ID, s.Active, s.ManualStopped)
	if len(status.Sinks) > 0 {
		fmt.Fprintf(w, "sinks: %s (%d pending)\n", strings.Join(status.Sinks, ", "), status.Pending)
	}
	for _, t := range status.Transcripts {
		fmt.Fprintf(w, "%s  %s\n", t.Timestamp.Format("15:04:05"), t.Text)
	}
}

// NewHealthCmd pings the daemon over the control socket.
func NewHealthCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ping the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			var resp SimpleResponse
			if err := Call(cfg.Paths.SocketPath, Request{Op: OpHealth}, &resp); err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("unhealthy: %s", resp.Message)
			}
			cmd.Println(resp.Message)
			return nil
		},
	}
}

// NewSessionCmd starts or stops the daemon's session without stopping the
// daemon.
func NewSessionCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start or stop listening in the running daemon",
	}
	for _, op := range []string{OpStart, OpStop} {
		op := op
		cmd.AddCommand(&cobra.Command{
			Use:   op,
			Short: fmt.Sprintf("Ask the daemon's session to %s", op),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(*cfgPath)
				if err != nil {
					return err
				}
				var resp SimpleResponse
				if err := Call(cfg.Paths.SocketPath, Request{Op: op}, &resp); err != nil {
					return err
				}
				if !resp.OK {
					return fmt.Errorf("session %s failed: %s", op, resp.Message)
				}
				cmd.Println(resp.Message)
				return nil
			},
		})
	}
	return cmd
}

// NewTailLogCmd tails the main log file.
func NewTailLogCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail-log",
		Short: "Show the last log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("lines")
			return tailFile(cmd.OutOrStdout(), cfg.Paths.LogPath, n)
		},
	}
	cmd.Flags().IntP("lines", "n", 50, "number of lines")
	return cmd
}

func tailFile(w io.Writer, path string, n int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			fmt.Fprintln(w, l)
		}
	}
	return nil
}

// NewTestHookCmd sends text through the hook sink as a final transcript.
func NewTestHookCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "test-hook \"some text\"",
		Short: "Send sample text through the hooks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if len(cfg.Hooks) == 0 {
				return fmt.Errorf("no hook configured; add [[hooks]] entries")
			}
			r := sink.NewHookRunner(cfg.Hooks, logging.Console(cfg))
			return r.Deliver(cmd.Context(), sink.NewTranscript("test-hook", args[0], true, time.Now()))
		},
	}
}

// NewDoctorCmd runs environment checks.
func NewDoctorCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check engine, hooks, and config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			failed := false
			for _, r := range doctor.Run(cfg) {
				status := "ok"
				if !r.Pass {
					status = "fail"
					failed = true
				}
				cmd.Printf("%-14s %-4s %s\n", r.Name, status, r.Detail)
			}
			if failed {
				return fmt.Errorf("doctor found issues")
			}
			return nil
		},
	}
}

// NewConfigCmd prints the effective configuration.
func NewConfigCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective config (file + env) and resolved session options",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			return showConfig(cmd.OutOrStdout(), cfg)
		},
	})
	return cmd
}

func showConfig(w io.Writer, cfg *config.Config) error {
	fmt.Fprintf(w, "# %s\n", cfg.Paths.ConfigPath)
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	resolved, err := toml.Marshal(map[string]any{"resolved_session": cfg.SessionOptions().Map()})
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	_, err = w.Write(resolved)
	return err
}

// NewServiceCmd manages the per-user service definition.
func NewServiceCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the user service (launchd on macOS, systemd elsewhere)",
	}
	install := &cobra.Command{
		Use:   "install",
		Short: "Write the user service definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return err
			}
			envPairs, _ := cmd.Flags().GetStringArray("env")
			env := make(map[string]string)
			for _, p := range envPairs {
				k, v, ok := strings.Cut(p, "=")
				if !ok {
					return fmt.Errorf("bad env %q, want KEY=VAL", p)
				}
				env[k] = v
			}
			path, err := service.Install(service.Params{
				Label:  service.Label,
				Binary: exe,
				Config: cfg.Paths.ConfigPath,
				Log:    cfg.Paths.LogPath,
				Env:    env,
			})
			if err != nil {
				return err
			}
			cmd.Printf("service definition written: %s\n", path)
			if strings.HasSuffix(path, ".plist") {
				cmd.Println("Load:   launchctl load -w", path)
				cmd.Printf("Stop:   launchctl bootout gui/$(id -u)/%s\n", service.Label)
			} else {
				cmd.Println("Enable: systemctl --user daemon-reload && systemctl --user enable --now", service.Label)
			}
			return nil
		},
	}
	install.Flags().StringArray("env", nil, "Env to set in the service (KEY=VAL)")

	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the user service definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := service.Path(service.Label)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			cmd.Printf("removed %s (if present); unload it with launchctl or systemctl --user\n", path)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the service definition path and whether it exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, ok := service.Status(service.Label)
			cmd.Printf("definition: %s\n", path)
			if ok {
				cmd.Println("status: present")
			} else {
				cmd.Println("status: missing (install via: earshot service install)")
			}
			return nil
		},
	}
	cmd.AddCommand(install, uninstall, status)
	return cmd
}
