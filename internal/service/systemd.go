package service

import (
	"os"
	"path/filepath"
)

const unitTemplate = `[Unit]
Description=earshot speech recognition daemon
After=sound.target

[Service]
ExecStart={{.Binary}} serve --config {{.Config}}
Restart=on-failure
RestartSec=2
{{- range $k, $v := .Env }}
Environment="{{$k}}={{$v}}"
{{- end }}

[Install]
WantedBy=default.target
`

// UnitPath returns the systemd user unit path for a label.
func UnitPath(label string) string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "systemd", "user", label+".service")
}

// WriteUnit writes a systemd user unit.
func WriteUnit(params Params) (string, error) {
	return writeTemplate(UnitPath(params.Label), unitTemplate, params)
}
