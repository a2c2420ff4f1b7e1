package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/xyproto/env/v2"
	"k8s.io/klog/v2"

	"github.com/joltwallet/elf2jelf/elfrw"
	"github.com/joltwallet/elf2jelf/exports"
	"github.com/joltwallet/elf2jelf/jelfrw"
)

type config struct {
	Input        string
	Output       string
	Coin         string
	BIP32Key     string
	ExportList   string
	ExportHeader string
	Analyze      bool
	Verbose      string
	ShowVersion  bool
}

const versionString = "elf2jelf 0.1.0 (ELF32/Xtensa to JELF converter)"

var (
	cfg = &config{}

	output       = flag.String("o", "", "Output filename (default: input with a .jelf extension)")
	outputLong   = flag.String("output", "", "Alias for -o")
	coin         = flag.String("coin", "", "Coin derivation pair, e.g. \"44'/165'\" (apostrophe hardens a component)")
	bip32key     = flag.String("bip32key", env.Str("JELF_BIP32KEY", "bitcoin_seed"), "BIP32 derivation seed string key")
	exportList   = flag.String("exports", env.Str("JELF_EXPORT_LIST", "export_list.txt"), "Export list resource path")
	exportHeader = flag.String("export-header", "", "Also write the companion C export header to this path")
	analyze      = flag.Bool("analyze", false, "Dump the input ELF structure and exit without converting")
	verbose      = flag.String("verbose", "INFO", "Verbosity: SILENT, INFO or DEBUG")
	showVersion  = flag.Bool("version", false, "Display version information and exit")
)

func init() {
	flag.Usage = customUsage
}

func customUsage() {
	_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] INPUT.elf\n", os.Args[0])
	_, _ = fmt.Fprintln(os.Stderr, "Convert a 32-bit Xtensa ELF object into a signable JELF binary.")
	_, _ = fmt.Fprintln(os.Stderr, "")
	_, _ = fmt.Fprintln(os.Stderr, "Options:")
	flag.PrintDefaults()
	_, _ = fmt.Fprintln(os.Stderr, "")
	_, _ = fmt.Fprintln(os.Stderr, "Examples:")
	_, _ = fmt.Fprintf(os.Stderr, "  %s -coin \"44'/165'\" app.elf          # Convert with hardened derivation\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  %s -analyze app.elf                  # Inspect the input only\n", os.Args[0])
}

func parseFlags() {
	flag.Parse()

	cfg.Output = *output
	if cfg.Output == "" {
		cfg.Output = *outputLong
	}
	cfg.Coin = *coin
	cfg.BIP32Key = *bip32key
	cfg.ExportList = *exportList
	cfg.ExportHeader = *exportHeader
	cfg.Analyze = *analyze
	cfg.Verbose = strings.ToUpper(*verbose)
	cfg.ShowVersion = *showVersion

	if cfg.ShowVersion {
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cfg.Input = flag.Arg(0)
	if cfg.Output == "" {
		cfg.Output = strings.TrimSuffix(cfg.Input, filepath.Ext(cfg.Input)) + ".jelf"
	}
}

func newLogger(level string) (logr.Logger, error) {
	switch level {
	case "SILENT":
		return logr.Discard(), nil
	case "INFO":
		return klog.NewKlogr(), nil
	case "DEBUG":
		fs := flag.NewFlagSet("klog", flag.ContinueOnError)
		klog.InitFlags(fs)
		if err := fs.Set("v", "1"); err != nil {
			return logr.Logger{}, err
		}
		return klog.NewKlogr(), nil
	default:
		return logr.Logger{}, fmt.Errorf("invalid verbosity %q: want SILENT, INFO or DEBUG", level)
	}
}

func run(log logr.Logger) error {
	raw, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	log.Info("read input", "file", cfg.Input, "bytes", len(raw))

	if cfg.Analyze {
		return elfrw.Inspect(raw, log)
	}

	if cfg.Coin == "" {
		return fmt.Errorf("missing required -coin derivation path")
	}
	purpose, coinPath, err := jelfrw.ParseDerivation(cfg.Coin)
	if err != nil {
		return err
	}
	log.Info("derivation", "purpose", fmt.Sprintf("0x%08X", purpose), "coin", fmt.Sprintf("0x%08X", coinPath))

	list, err := exports.Load(cfg.ExportList)
	if err != nil {
		return err
	}
	log.Info("loaded export list", "names", len(list.Names), "version", fmt.Sprintf("%d.%d", list.Major, list.Minor))

	if cfg.ExportHeader != "" {
		f, err := os.Create(cfg.ExportHeader)
		if err != nil {
			return fmt.Errorf("failed to create export header: %w", err)
		}
		if err := list.WriteHeader(f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write export header: %w", err)
		}
	}

	jelf, err := jelfrw.Convert(raw, list, jelfrw.Params{
		Purpose:  purpose,
		Coin:     coinPath,
		BIP32Key: cfg.BIP32Key,
	}, log)
	if err != nil {
		return err
	}

	// The output file only comes into existence once conversion has fully
	// succeeded in memory.
	if err := os.WriteFile(cfg.Output, jelf, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	log.Info("wrote output", "file", cfg.Output, "bytes", len(jelf))
	return nil
}

func main() {
	parseFlags()
	if cfg.ShowVersion {
		fmt.Println(versionString)
		return
	}

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		klog.Exitf("%v", err)
	}
	if err := run(log); err != nil {
		klog.Exitf("%s: %v", cfg.Input, err)
	}
}
