package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/akeil/annotate"
	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/fs"
)

// doExport exports all documents in parallel.
func doExport(s settings, paths []string, annotations, outDir string) error {
	if annotations != "" && len(paths) > 1 {
		return fmt.Errorf("an annotations file can only be used with a single document")
	}

	opts := s.options()
	var group errgroup.Group
	for _, path := range paths {
		path := path
		group.Go(func() error {
			return exportOne(opts, path, annotations, outDir)
		})
	}
	return group.Wait()
}

func exportOne(opts annotate.Options, path, annotations, outDir string) error {
	fmt.Printf("%v export %q\n", ellipsis, path)
	doc, err := annotate.OpenFile(path)
	if err != nil {
		fmt.Printf("%v Failed to load %q: %v\n", crossmark, path, err)
		return err
	}

	e, err := annotate.NewEditor(doc, opts)
	if err != nil {
		return err
	}

	if doc.FileType() == annotate.PDF {
		err = importAnnotations(e, path, annotations)
		if err != nil {
			fmt.Printf("%v Failed to read annotations for %q: %v\n", crossmark, path, err)
			return err
		}
	}

	dst := filepath.Join(outDir, doc.ExportName())
	err = fs.WriteAtomic(dst, e.Export)
	if err != nil {
		fmt.Printf("%v Failed to export %q: %v\n", crossmark, path, err)
		return err
	}

	fmt.Printf("%v document %q saved as %q.\n", checkmark, doc.Name(), dst)
	return nil
}

// importAnnotations reads the given annotations file or, if none is given,
// the sidecar file next to the document if there is one.
func importAnnotations(e *annotate.Editor, path, annotations string) error {
	explicit := annotations != ""
	if !explicit {
		annotations = sidecar(path)
	}

	a, err := annotate.ReadAnnotationsFile(annotations)
	if err != nil {
		if errors.IsNotFound(err) && !explicit {
			return nil
		}
		return err
	}

	fmt.Printf("%v apply %v from %q\n", ellipsis, a, annotations)
	return e.ImportAnnotations(a)
}

func sidecar(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + annotate.AnnotationsExt
}
