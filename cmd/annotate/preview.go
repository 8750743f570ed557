package main

import (
	"io"
	"os"

	"github.com/akeil/annotate"
	"github.com/akeil/annotate/internal/fs"
)

func doPreview(path, out string) error {
	doc, err := annotate.OpenFile(path)
	if err != nil {
		return err
	}
	e, err := annotate.NewEditor(doc, annotate.Options{})
	if err != nil {
		return err
	}

	if out == "" {
		return e.Preview(os.Stdout)
	}
	return fs.WriteAtomic(out, func(w io.Writer) error {
		return e.Preview(w)
	})
}
