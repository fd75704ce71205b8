package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/provide-io/tiger/go/tiger/pkg"
	"github.com/provide-io/tiger/go/tiger/pkg/logging"
	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
	"github.com/provide-io/tiger/go/tiger/pkg/tiger/extract"
	"github.com/provide-io/tiger/go/tiger/pkg/tiger/format"
)

const version = "0.1.0"

var (
	packagesDir   string
	packageID     string
	outputDir     string
	includeAll    bool
	logLevel      string
	tagPolicy     string
	codecLib      string
	jobs          int
	blockCache    int
	archive       string
	writeManifest bool
	versionFlag   bool
	rootCmd       *cobra.Command
)

func getBuilderTimestamp() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func printVersion() {
	fmt.Printf("tiger-extract %s\n", version)
	fmt.Printf("Built: %s\n", getBuilderTimestamp())
}

func init() {
	rootCmd = &cobra.Command{
		Use:           "tiger-extract",
		Short:         "Extract audio assets from Tiger packages",
		Long:          `Locate the newest patch of a package, decrypt and decompress its blocks and write every sound bank and wem stream to disk.`,
		RunE:          runExtract,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVarP(&packagesDir, "packages", "p", "", "Packages directory (required)")
	rootCmd.Flags().StringVarP(&packageID, "id", "i", "", "Package id, e.g. 0932 (required)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (defaults to ./output/{id})")
	rootCmd.Flags().BoolVarP(&includeAll, "nonaudio", "n", !format.DefaultSkipNonAudio, "Extract every entry, not only banks and wems")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().StringVar(&tagPolicy, "tag-policy", "", "GCM tag handling: permissive or strict (env TIGER_TAG_POLICY)")
	rootCmd.Flags().StringVar(&codecLib, "codec-lib", "", "Path to the Oodle library (env TIGER_OODLE_LIB)")
	rootCmd.Flags().IntVar(&jobs, "jobs", format.DefaultJobs, "Entries rebuilt concurrently")
	rootCmd.Flags().IntVar(&blockCache, "block-cache", format.DefaultBlockCache, "Decoded blocks kept in memory (0 disables)")
	rootCmd.Flags().StringVar(&archive, "archive", "", "Write one archive instead of a tree: tar, tar|gzip, tar|bzip2, tar|zstd")
	rootCmd.Flags().BoolVar(&writeManifest, "manifest", false, "Write manifest.json next to the extracted files")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			debug.PrintStack()
			os.Exit(terr.ExitPanic)
		}
	}()

	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion()
		os.Exit(terr.ExitOK)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := terr.ExitCode(err)
		if code == terr.ExitGeneric {
			// Flag parsing errors come straight from cobra.
			code = terr.ExitConfiguration
		}
		os.Exit(code)
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	if versionFlag {
		printVersion()
		return nil
	}
	if packagesDir == "" || packageID == "" {
		return fmt.Errorf("%w: --packages and --id are required", terr.ErrConfiguration)
	}

	logger := logging.NewLogger("tiger-extract", logging.ResolveLevel(logLevel), nil)

	policy := format.GetTagPolicy(logger)
	if cmd.Flags().Changed("tag-policy") {
		p, ok := format.ParseTagPolicy(tagPolicy)
		if !ok {
			return fmt.Errorf("%w: unknown tag policy %q", terr.ErrConfiguration, tagPolicy)
		}
		policy = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := pkg.ExtractPackage(ctx, extract.Config{
		PackagesDir:     packagesDir,
		PackageID:       packageID,
		OutputDir:       outputDir,
		IncludeNonAudio: includeAll,
		Archive:         archive,
		WriteManifest:   writeManifest,
		Jobs:            jobs,
		Format: format.Options{
			Logger:     logger,
			TagPolicy:  policy,
			BlockCache: blockCache,
		},
	}, codecLib)
	if err != nil {
		return err
	}

	fmt.Printf("Extracted %d entries (%d skipped) to %s\n", result.Extracted, result.Skipped, result.OutputPath)
	return nil
}
