package main

import (
	"fmt"

	"github.com/akeil/annotate"
)

func doInfo(paths []string) error {
	var failed int
	for _, path := range paths {
		doc, err := annotate.OpenFile(path)
		if err != nil {
			fmt.Printf("%v %v\n", crossmark, err)
			failed++
			continue
		}

		fmt.Printf("%v %v (%v)\n", checkmark, doc.Name(), doc.FileType())
		for i := 1; i <= doc.PageCount(); i++ {
			size, _ := doc.PageSize(i)
			fmt.Printf("  page %3d  %7.2f x %7.2f pt\n", i, size.Width, size.Height)
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to read %d of %d documents", failed, len(paths))
	}
	return nil
}
