package main

import (
	"fmt"

	"github.com/akeil/annotate"
)

func doRuns(path string, page int) error {
	doc, err := annotate.OpenFile(path)
	if err != nil {
		return err
	}
	e, err := annotate.NewEditor(doc, annotate.Options{})
	if err != nil {
		return err
	}

	runs, err := e.Runs(page)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Printf("No text on page %d of %q\n", page, doc.Name())
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%-14s %5.1fpt %-20s %q\n", r.Key(), r.FontSize, r.Font, r.Text)
	}
	return nil
}
