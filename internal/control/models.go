package control

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"earshot/internal/config"

	"github.com/spf13/cobra"
)

// known ggml models for the whisper engine.
var modelRegistry = map[string]string{
	"ggml-base.en.bin":             "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.en.bin",
	"ggml-small-q5_1.bin":          "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small-q5_1.bin",
	"ggml-medium-q5_1.bin":         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium-q5_1.bin",
	"ggml-large-v3-q5_0.bin":       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3-q5_0.bin",
	"ggml-large-v3-turbo-q8_0.bin": "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3-turbo-q8_0.bin",
}

// NewModelsCmd wires up the models subcommands (list/download/set).
func NewModelsCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List/download/set whisper models",
	}
	cmd.AddCommand(newModelsListCmd(cfgPath))
	cmd.AddCommand(newModelsDownloadCmd(cfgPath))
	cmd.AddCommand(newModelsSetCmd(cfgPath))
	return cmd
}

func newModelsListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known models and those present locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			listModels(cmd.OutOrStdout(), cfg.Paths.ModelDir, cfg.Engine.Whisper.ModelPath)
			return nil
		},
	}
}

func listModels(w io.Writer, modelDir, current string) {
	local := map[string]bool{}
	entries, _ := os.ReadDir(modelDir)
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".bin") {
			local[e.Name()] = true
		}
	}
	names := make([]string, 0, len(modelRegistry)+len(local))
	for n := range modelRegistry {
		names = append(names, n)
	}
	for n := range local {
		if _, known := modelRegistry[n]; !known {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	for _, n := range names {
		var marks []string
		if local[n] {
			marks = append(marks, "downloaded")
		}
		if filepath.Base(current) == n {
			marks = append(marks, "selected")
		}
		if len(marks) > 0 {
			fmt.Fprintf(w, "- %s (%s)\n", n, strings.Join(marks, ", "))
		} else {
			fmt.Fprintf(w, "- %s\n", n)
		}
	}
}

func newModelsDownloadCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "download <model>",
		Short: "Download a model from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			name := args[0]
			url, ok := modelRegistry[name]
			if !ok {
				return fmt.Errorf("unknown model %q; run models list", name)
			}
			dest := filepath.Join(cfg.Paths.ModelDir, name)
			cmd.Printf("downloading %s -> %s\n", name, dest)
			return download(url, dest)
		},
	}
}

func download(url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}
	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}

func newModelsSetCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <model-name-or-path>",
		Short: "Set engine.whisper.model_path in config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			val := resolveModel(cfg.Paths.ModelDir, args[0])
			cfg.Engine.Whisper.ModelPath = val
			if err := config.Save(cfg, cfg.Paths.ConfigPath); err != nil {
				return err
			}
			cmd.Printf("model set to %s\n", val)
			return nil
		},
	}
}

// resolveModel treats bare names as files in modelDir.
func resolveModel(modelDir, val string) string {
	if !strings.ContainsRune(val, os.PathSeparator) && !strings.Contains(val, "/") {
		return filepath.Join(modelDir, val)
	}
	return val
}
