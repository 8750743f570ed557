package main

import (
	"fmt"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/akeil/annotate"
	"github.com/akeil/annotate/pkg/render"
)

const (
	checkmark = "✓"
	crossmark = "✗"
	ellipsis  = "…"
)

// settings are the global options shared by all commands.
type settings struct {
	logLevel     string
	rasterScale  float64
	historyLimit int
	noValidate   bool
}

func (s settings) options() annotate.Options {
	return annotate.Options{
		HistoryLimit: s.historyLimit,
		Render:       render.NewContext(s.rasterScale, !s.noValidate),
	}
}

func main() {
	app := kingpin.New("annotate", "Annotate and flatten PDF documents")
	app.HelpFlag.Short('h')

	var s settings
	app.Flag("log-level", "Log level (debug, info, warning, error)").
		Envar("ANNOTATE_LOG_LEVEL").Default("warning").StringVar(&s.logLevel)
	app.Flag("raster-scale", "Raster pixels per PDF point for flattened annotations").
		Envar("ANNOTATE_RASTER_SCALE").Default("2").Float64Var(&s.rasterScale)
	app.Flag("history-limit", "Maximum number of undo steps per page, 0 for unlimited").
		Envar("ANNOTATE_HISTORY_LIMIT").Default("100").IntVar(&s.historyLimit)
	app.Flag("no-validate", "Skip the structural check of exported PDFs").
		Envar("ANNOTATE_NO_VALIDATE").BoolVar(&s.noValidate)

	info := app.Command("info", "Show type and page geometry of documents")
	var (
		infoPaths = info.Arg("files", "PDF or DOCX files").Required().ExistingFiles()
	)

	runs := app.Command("runs", "List the text runs of a PDF page")
	var (
		runsPath = runs.Arg("file", "PDF file").Required().ExistingFile()
		runsPage = runs.Flag("page", "Page number").Short('p').Default("1").Int()
	)

	preview := app.Command("preview", "Convert a DOCX document to HTML")
	var (
		previewPath = preview.Arg("file", "DOCX file").Required().ExistingFile()
		previewOut  = preview.Flag("output", "Output file, default is stdout").Short('o').String()
	)

	export := app.Command("export", "Write edited_<name> copies with annotations flattened")
	var (
		exportPaths = export.Arg("files", "PDF or DOCX files").Required().ExistingFiles()
		annotations = export.Flag("annotations", "Annotations file, default is <file>"+annotate.AnnotationsExt).Short('a').String()
		outDir      = export.Flag("output", "Output directory").Short('o').Default(".").ExistingDir()
	)

	serve := app.Command("serve", "Run a local annotation session server")
	var (
		addr = serve.Flag("addr", "Listen address").Default("127.0.0.1:7070").TCP()
	)

	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	annotate.SetLogLevel(s.logLevel)

	var err error
	switch command {
	case "info":
		err = doInfo(*infoPaths)
	case "runs":
		err = doRuns(*runsPath, *runsPage)
	case "preview":
		err = doPreview(*previewPath, *previewOut)
	case "export":
		err = doExport(s, *exportPaths, *annotations, *outDir)
	case "serve":
		err = doServe(s, (*addr).String())
	default:
		err = fmt.Errorf("unknown command: %q", command)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
