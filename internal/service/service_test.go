package service

import (
	"os"
	"strings"
	"testing"
)

func TestWritePlist(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path, err := WritePlist(Params{
		Label:  Label,
		Binary: "/usr/local/bin/earshot",
		Config: "/tmp/earshot.toml",
		Log:    "/tmp/earshot.log",
		Env:    map[string]string{"EARSHOT_ENGINE": "whisper"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(data)
	for _, want := range []string{"<string>serve</string>", "<key>EARSHOT_ENGINE</key><string>whisper</string>", Label} {
		if !strings.Contains(s, want) {
			t.Fatalf("plist missing %q:\n%s", want, s)
		}
	}
}

func TestWriteUnit(t *testing.T) {
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	path, err := WriteUnit(Params{
		Label:  Label,
		Binary: "/usr/bin/earshot",
		Config: "/home/u/.config/earshot/config.toml",
		Env:    map[string]string{"EARSHOT_LANG": "en-US"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasPrefix(path, cfgHome) || !strings.HasSuffix(path, Label+".service") {
		t.Fatalf("unit path = %s", path)
	}
	data, _ := os.ReadFile(path)
	s := string(data)
	if !strings.Contains(s, "ExecStart=/usr/bin/earshot serve --config /home/u/.config/earshot/config.toml") {
		t.Fatalf("bad ExecStart:\n%s", s)
	}
	if !strings.Contains(s, `Environment="EARSHOT_LANG=en-US"`) {
		t.Fatalf("env missing:\n%s", s)
	}
}

func TestStatusReportsPresence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	if _, ok := Status(Label); ok {
		t.Fatalf("status present before install")
	}
	if _, err := Install(Params{Label: Label, Binary: "/bin/earshot", Config: "c", Log: "l"}); err != nil {
		t.Fatalf("install: %v", err)
	}
	if _, ok := Status(Label); !ok {
		t.Fatalf("status missing after install")
	}
}
