// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"leakwatch/internal/config"
	"leakwatch/internal/detector"
	"leakwatch/internal/observability"
	"leakwatch/internal/pipeline"
	"leakwatch/internal/version"
)

// configFlags holds command line flag values
type configFlags struct {
	configFile  string
	scanText    string
	scanImage   string
	scanAudio   string
	scanVideo   string
	scanFolder  string
	output      string
	recursive   bool
	debug       bool
	noColor     bool
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		fmt.Println(version.Info())
		return
	}

	// Disable colors when requested or when stdout is not a terminal
	if flags.noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	cfg := loadConfiguration(flags.configFile)

	level := observability.ObservabilityMetrics
	if flags.debug {
		level = observability.ObservabilityDebug
	}
	observer := observability.NewStandardObserver(level, os.Stderr)

	manager, err := pipeline.NewManager(cfg, observer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case flags.scanText != "":
		runSingle(manager.ProcessText, flags.scanText, flags.output)
	case flags.scanImage != "":
		result, err := manager.ProcessImage(flags.scanImage, flags.output)
		exitOnError(err)
		printResult(result)
	case flags.scanAudio != "":
		runSingle(manager.ProcessAudio, flags.scanAudio, flags.output)
	case flags.scanVideo != "":
		runSingle(manager.ProcessVideo, flags.scanVideo, flags.output)
	case flags.scanFolder != "":
		results, err := manager.ProcessFolder(flags.scanFolder, flags.recursive)
		exitOnError(err)
		fmt.Printf("Processed %d file(s)\n\n", len(results))
		for _, result := range results {
			printResult(result)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// parseFlags defines and parses the command line flags
func parseFlags() *configFlags {
	flags := &configFlags{}
	flag.StringVar(&flags.configFile, "config", "", "Path to configuration file")
	flag.StringVar(&flags.scanText, "text", "", "Scan a single text file")
	flag.StringVar(&flags.scanImage, "image", "", "Scan a single image file")
	flag.StringVar(&flags.scanAudio, "audio", "", "Scan an audio file via its transcript")
	flag.StringVar(&flags.scanVideo, "video", "", "Scan a video via extracted frames")
	flag.StringVar(&flags.scanFolder, "folder", "", "Scan all supported files in a folder")
	flag.StringVar(&flags.output, "output", "", "Copy the sanitized output to this path")
	flag.BoolVar(&flags.recursive, "recursive", false, "Recurse into subdirectories when scanning a folder")
	flag.BoolVar(&flags.debug, "debug", false, "Enable debug output")
	flag.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&flags.showVersion, "version", false, "Show version information")
	flag.Parse()
	return flags
}

// loadConfiguration loads the configuration file or returns default config
func loadConfiguration(configFile string) *config.Config {
	configPath := configFile
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Error loading config file: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		cfg, _ = config.LoadConfig("")
	}
	return cfg
}

// runSingle runs one single-artifact operation and optionally copies the
// sanitized output to the requested path
func runSingle(process func(string) (*detector.DetectionResult, error), path, output string) {
	result, err := process(path)
	exitOnError(err)
	if output != "" && result.MitigatedOutput != "" {
		exitOnError(copyFile(result.MitigatedOutput, output))
	}
	printResult(result)
}

// printResult prints a structured summary for one processed artifact
func printResult(result *detector.DetectionResult) {
	header := color.New(color.FgWhite, color.Bold)
	labelColor := color.New(color.FgCyan)
	actionColor := color.New(color.FgYellow)

	header.Printf("%s [%s]\n", result.SourcePath, result.Modality)
	if result.MitigatedOutput != "" {
		fmt.Printf("  sanitized: %s\n", result.MitigatedOutput)
	}
	for _, artifact := range result.Artifacts {
		fmt.Printf("  artifact : %s\n", artifact)
	}
	if result.AuditLog != "" {
		fmt.Printf("  audit    : %s\n", result.AuditLog)
	}

	if len(result.Entities) == 0 {
		fmt.Println("  no sensitive entities found")
		fmt.Println()
		return
	}

	for _, entity := range result.Entities {
		fmt.Printf("  - %s (confidence %.2f, %s)",
			labelColor.Sprint(entity.Label), entity.Confidence, actionColor.Sprint(entity.Mitigation))
		switch {
		case entity.Span != nil:
			fmt.Printf(" span=(%d, %d)", entity.Span.Start, entity.Span.End)
		case entity.BBox != nil:
			fmt.Printf(" bbox=(%d, %d, %d, %d)", entity.BBox.X, entity.BBox.Y, entity.BBox.Width, entity.BBox.Height)
		}
		fmt.Println()
	}
	fmt.Println()
}

// copyFile copies a file's contents to a destination path
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy output: %w", err)
	}
	return nil
}

// exitOnError prints an error and exits non-zero
func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
