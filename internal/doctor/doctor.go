// Package doctor checks that the configured engine and sinks can run.
package doctor

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"

	"earshot/internal/config"
	"earshot/internal/engine/replay"
)

// Result represents a diagnostic check.
type Result struct {
	Name   string
	Pass   bool
	Detail string
}

// Run executes doctor checks.
func Run(cfg *config.Config) []Result {
	results := []Result{checkFile("config path", cfg.Paths.ConfigPath)}
	switch strings.ToLower(cfg.Engine.Kind) {
	case "", "replay":
		results = append(results, checkReplayScript(cfg.Engine.Replay.ScriptPath))
	case "whisper":
		results = append(results, checkFile("model file", cfg.Engine.Whisper.ModelPath))
		if cfg.Engine.Whisper.InputFile == "" {
			results = append(results, checkPortAudioPkgConfig(), checkPortAudio())
		} else {
			results = append(results, checkFile("input file", cfg.Engine.Whisper.InputFile))
		}
	case "azure":
		results = append(results, checkAzure(cfg.Engine.Azure))
	default:
		results = append(results, Result{Name: "engine", Detail: fmt.Sprintf("unknown kind %q", cfg.Engine.Kind)})
	}
	for i, hk := range cfg.Hooks {
		results = append(results, checkHookExecutable(fmt.Sprintf("hooks[%d]", i), hk.Command))
	}
	if cfg.Metrics.Enabled {
		results = append(results, checkAddr(cfg.Metrics.Addr))
	}
	return results
}

func checkFile(label, path string) Result {
	if path == "" {
		return Result{Name: label, Pass: false, Detail: "not set"}
	}
	if _, err := os.Stat(os.ExpandEnv(path)); err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: path}
}

func checkReplayScript(path string) Result {
	const label = "replay script"
	script, err := replay.Load(os.ExpandEnv(path))
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: fmt.Sprintf("%s (%d steps)", path, len(script.Steps))}
}

func checkAzure(cfg config.AzureConfig) Result {
	const label = "azure"
	switch {
	case cfg.Key == "":
		return Result{Name: label, Detail: "key not set (AZURE_SPEECH_KEY)"}
	case cfg.Region == "":
		return Result{Name: label, Detail: "region not set (AZURE_SPEECH_REGION)"}
	}
	return Result{Name: label, Pass: true, Detail: "region " + cfg.Region}
}

func checkHookExecutable(label, cmd string) Result {
	if cmd == "" {
		return Result{Name: label, Pass: false, Detail: "command not set"}
	}
	path := os.ExpandEnv(cmd)
	if strings.Contains(path, "/") || strings.Contains(path, "\\") {
		info, err := os.Stat(path)
		if err != nil {
			return Result{Name: label, Pass: false, Detail: err.Error()}
		}
		if info.IsDir() {
			return Result{Name: label, Pass: false, Detail: "is a directory; set command to an executable file"}
		}
		if info.Mode().Perm()&0o111 == 0 {
			return Result{Name: label, Pass: false, Detail: "not executable; chmod +x or choose another command"}
		}
		return Result{Name: label, Pass: true, Detail: path}
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: resolved}
}

func checkAddr(addr string) Result {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return Result{Name: "metrics.addr", Detail: err.Error()}
	}
	return Result{Name: "metrics.addr", Pass: true, Detail: addr}
}

func checkPortAudioPkgConfig() Result {
	pkg, err := exec.LookPath("pkg-config")
	if err != nil {
		return Result{Name: "pkg-config", Pass: false, Detail: "pkg-config not found"}
	}
	cmd := exec.Command(pkg, "--exists", "portaudio-2.0")
	if err := cmd.Run(); err != nil {
		return Result{Name: "portaudio-dev", Pass: false, Detail: "portaudio-2.0 not found (brew install portaudio / apt install portaudio19-dev)"}
	}
	versionCmd := exec.Command(pkg, "--modversion", "portaudio-2.0")
	if out, err := versionCmd.Output(); err == nil {
		return Result{Name: "portaudio-dev", Pass: true, Detail: strings.TrimSpace(string(out))}
	}
	return Result{Name: "portaudio-dev", Pass: true, Detail: "found via pkg-config"}
}
