package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"angelhub/pkg/export"
	"angelhub/pkg/importer"
)

// runExport handles the export subcommand
func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to YAML config file (optional)")
	workID := fs.String("work", "", "Work id to export")
	format := fs.String("format", "markdown", "Export format (markdown, docx, pdf)")
	all := fs.Bool("all", false, "Export the whole library as a JSON backup")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: angelhub export [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  angelhub export -all\n")
		fmt.Fprintf(os.Stderr, "  angelhub export -work 7f3a... -format pdf\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doExport(*configFile, *workID, *format, *all, os.Stdout, os.Stderr))
}

// doExport writes export files and reports their paths.
// Returns exit code (0 = success, 1 = error).
func doExport(configPath, workID, format string, all bool, stdout, stderr io.Writer) int {
	log, err := newLogger("warn", stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(configPath, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening library database: %v\n", err)
		return 1
	}
	defer store.Close()

	exporter := export.New(cfg.ExportDir, log.WithField("component", "export"))

	if all {
		works, err := store.List()
		if err != nil {
			fmt.Fprintf(stderr, "Error listing works: %v\n", err)
			return 1
		}
		path, err := exporter.LibraryJSON(works)
		if err != nil {
			fmt.Fprintf(stderr, "Error writing backup: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote backup of %d works to %s\n", len(works), path)
		return 0
	}

	if workID == "" {
		fmt.Fprintln(stderr, "Error: one of -work or -all is required")
		return 1
	}

	work, err := store.Get(workID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var path string
	switch format {
	case "markdown", "md":
		path, err = exporter.WorkMarkdown(work)
	case "docx":
		path, err = exporter.WorkDOCX(work)
	case "pdf":
		path, err = exporter.WorkPDF(work)
	default:
		fmt.Fprintf(stderr, "Error: unknown format %q (markdown, docx, pdf)\n", format)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error exporting %q: %v\n", work.Title, err)
		return 1
	}

	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return 0
}

// runImport handles the import subcommand
func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to YAML config file (optional)")
	title := fs.String("title", "", "Title for markdown imports (defaults to the file name)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: angelhub import [options] <path>\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nThe path may be a .json backup, a .docx or .md file, or a directory of .docx files.\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	os.Exit(doImport(*configFile, fs.Arg(0), *title, os.Stdout, os.Stderr))
}

// doImport brings external files into the library.
// Returns exit code (0 = success, 1 = error).
func doImport(configPath, path, title string, stdout, stderr io.Writer) int {
	log, err := newLogger("warn", stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(configPath, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening library database: %v\n", err)
		return 1
	}
	defer store.Close()

	im := importer.New(store, log.WithField("component", "import"))

	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if info.IsDir() {
		paths, err := docxPathsIn(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if len(paths) == 0 {
			fmt.Fprintf(stderr, "Error: no .docx files in %s\n", path)
			return 1
		}
		works, failures := im.DOCXBatch(ctx, paths, cfg.ImportConcurrency)
		for _, f := range failures {
			fmt.Fprintf(stderr, "Failed: %v\n", f)
		}
		fmt.Fprintf(stdout, "Imported %d works (%d failed)\n", len(works), len(failures))
		if len(failures) > 0 {
			return 1
		}
		return 0
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		result, err := im.JSON(f)
		if err != nil {
			fmt.Fprintf(stderr, "Error importing backup: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Imported %d new, %d updated, %d skipped\n",
			result.Created, result.Updated, result.Skipped)
	case ".docx":
		work, err := im.DOCXFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error importing %s: %v\n", path, err)
			return 1
		}
		fmt.Fprintf(stdout, "Imported %q (%s)\n", work.Title, work.ID)
	case ".md", ".markdown":
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		if title == "" {
			base := filepath.Base(path)
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}
		work, err := im.Markdown(f, title)
		if err != nil {
			fmt.Fprintf(stderr, "Error importing %s: %v\n", path, err)
			return 1
		}
		fmt.Fprintf(stdout, "Imported %q (%s)\n", work.Title, work.ID)
	default:
		fmt.Fprintf(stderr, "Error: unsupported file type %q\n", filepath.Ext(path))
		return 1
	}

	return 0
}

// docxPathsIn lists .docx files directly inside dir.
func docxPathsIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".docx") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}
