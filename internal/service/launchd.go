// Package service writes per-user service definitions that keep the daemon
// running: a launchd plist on macOS, a systemd user unit on Linux.
package service

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
)

// Label names the service in both launchd and systemd.
const Label = "dev.earshot.agent"

const launchdTemplate = `<?xml version='1.0' encoding='UTF-8'?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
  <key>Label</key><string>{{.Label}}</string>
  <key>ProgramArguments</key>
  <array>
    <string>{{.Binary}}</string>
    <string>serve</string>
    <string>--config</string>
    <string>{{.Config}}</string>
  </array>
  <key>RunAtLoad</key><true/>
  <key>KeepAlive</key><dict><key>SuccessfulExit</key><false/></dict>
  <key>StandardOutPath</key><string>{{.Log}}</string>
  <key>StandardErrorPath</key><string>{{.Log}}</string>
  {{- if .Env }}
  <key>EnvironmentVariables</key>
  <dict>
    {{- range $k, $v := .Env }}
    <key>{{$k}}</key><string>{{$v}}</string>
    {{- end }}
  </dict>
  {{- end }}
</dict>
</plist>`

// Params describes the service to install.
type Params struct {
	Label  string
	Binary string
	Config string
	Log    string
	Env    map[string]string
}

// Path returns where the service definition for label lives on this OS.
func Path(label string) string {
	if runtime.GOOS == "darwin" {
		return LaunchdPath(label)
	}
	return UnitPath(label)
}

// Install writes the service definition for this OS.
func Install(params Params) (string, error) {
	if runtime.GOOS == "darwin" {
		return WritePlist(params)
	}
	return WriteUnit(params)
}

// Status returns the definition path and whether it exists.
func Status(label string) (string, bool) {
	p := Path(label)
	_, err := os.Stat(p)
	return p, err == nil
}

// LaunchdPath returns the plist path for a label.
func LaunchdPath(label string) string {
	return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", fmt.Sprintf("%s.plist", label))
}

// WritePlist writes a user-level launchd plist.
func WritePlist(params Params) (string, error) {
	return writeTemplate(LaunchdPath(params.Label), launchdTemplate, params)
}

func writeTemplate(path, text string, params Params) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	tpl := template.Must(template.New(filepath.Base(path)).Parse(text))
	if err := tpl.Execute(f, params); err != nil {
		return "", err
	}
	return path, nil
}
