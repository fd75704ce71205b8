package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/provide-io/tiger/go/tiger/pkg"
	"github.com/provide-io/tiger/go/tiger/pkg/logging"
	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
	"github.com/provide-io/tiger/go/tiger/pkg/tiger/format"
)

const version = "0.1.0"

var (
	packagesDir string
	packageID   string
	listEntries bool
	verify      bool
	includeAll  bool
	codecLib    string
	logLevel    string
	rootCmd     *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:           "tiger-inspect",
		Short:         "Inspect and verify Tiger packages",
		Version:       version,
		RunE:          runInspect,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVarP(&packagesDir, "packages", "p", "", "Packages directory (required)")
	rootCmd.Flags().StringVarP(&packageID, "id", "i", "", "Package id; lists the packages when omitted")
	rootCmd.Flags().BoolVar(&listEntries, "entries", false, "Log every entry and its output path")
	rootCmd.Flags().BoolVar(&verify, "verify", false, "Rebuild entries with strict tag checking")
	rootCmd.Flags().BoolVarP(&includeAll, "nonaudio", "n", !format.DefaultSkipNonAudio, "Verify every entry, not only banks and wems")
	rootCmd.Flags().StringVar(&codecLib, "codec-lib", "", "Path to the Oodle library (env TIGER_OODLE_LIB)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	if err := rootCmd.MarkFlagRequired("packages"); err != nil {
		panic(err)
	}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			debug.PrintStack()
			os.Exit(terr.ExitPanic)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := terr.ExitCode(err)
		if code == terr.ExitGeneric {
			code = terr.ExitConfiguration
		}
		os.Exit(code)
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger("tiger-inspect", logging.ResolveLevel(logLevel), nil)

	if packageID == "" {
		names, err := pkg.ListPackages(packagesDir, logger)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	report, err := pkg.InspectPackageWithLogger(packagesDir, packageID, pkg.InspectOptions{
		Entries:  listEntries,
		Verify:   verify,
		NonAudio: includeAll,
		CodecLib: codecLib,
		Format:   format.Options{BlockCache: format.DefaultBlockCache},
	}, logger)
	if err != nil {
		return err
	}

	h := report.Package.Header
	fmt.Printf("%s: pkgid 0x%04x, %d patches, %d entries (%d audio), %d blocks\n",
		report.Package.Path, h.PackageID, int(h.PatchCount)+1, len(report.Package.Entries), report.Audio, len(report.Package.Blocks))
	if verify {
		fmt.Printf("Verified %d entries\n", report.Verified)
	}
	return nil
}
