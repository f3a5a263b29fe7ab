package cmd

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cottand/jinfer/frontend/infer"
	"github.com/cottand/jinfer/frontend/scenario"
	"github.com/cottand/jinfer/internal/log"
	"github.com/spf13/cobra"
)

var InferCmd = &cobra.Command{
	Use:          "infer ./folder|scenario.yaml",
	Short:        "Infer the invocations of scenario files and check their expectations",
	RunE:         runInfer,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	logLevel          *int
	logSections       *[]string
	noCaptureFallback *bool
	maxRounds         *int
)

func init() {
	logLevel = InferCmd.PersistentFlags().IntP("log-level", "l", int(slog.LevelError), "log level")
	logSections = InferCmd.PersistentFlags().StringSlice("log-sections", log.Sections(), "sections to log below warning level")
	noCaptureFallback = InferCmd.Flags().Bool("no-capture-fallback", false, "do not resolve with fresh capture variables when the candidate instantiation fails")
	maxRounds = InferCmd.Flags().Int("max-resolution-rounds", infer.DefaultOptions().MaxResolutionRounds, "abort resolution after this many rounds")
}

func setupLogging() {
	log.SetLevel(slog.Level(*logLevel))
	log.EnableSections(*logSections...)
}

// scenarioFiles lists the yaml files of a folder, or the target itself when it is a file
func scenarioFiles(target string) ([]string, error) {
	stat, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("could not stat target: %w", err)
	}
	if !stat.IsDir() {
		return []string{target}, nil
	}
	var files []string
	err = fs.WalkDir(os.DirFS(target), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && (strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")) {
			files = append(files, filepath.Join(target, path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not list scenarios: %w", err)
	}
	return files, nil
}

func runInfer(cmd *cobra.Command, args []string) error {
	setupLogging()
	opts := infer.DefaultOptions()
	opts.CaptureFallback = !*noCaptureFallback
	opts.MaxResolutionRounds = *maxRounds

	failed := 0
	for _, arg := range args {
		target, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("could not get absolute path of target: %w", err)
		}
		files, err := scenarioFiles(target)
		if err != nil {
			return err
		}
		for _, file := range files {
			s, err := scenario.LoadFile(file)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			report, err := scenario.Run(s, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", arg)
			if err := report.Write(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("could not write report: %w", err)
			}
			failed += report.Failed()
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d invocations did not infer as expected", failed)
	}
	return nil
}
