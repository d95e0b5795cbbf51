// Package album binds finished page artwork into a single PDF, one page
// image per PDF page in story order.
package album

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/inkwell/pkg/store"
)

// Export renders the page images at pageKeys into a PDF written at outKey.
// Keys must reference existing workspace files; order is preserved.
func Export(st store.System, pageKeys []string, outKey string, logger *slog.Logger) error {
	if len(pageKeys) == 0 {
		return fmt.Errorf("no pages to export")
	}

	images := make([]string, len(pageKeys))
	for i, key := range pageKeys {
		if !st.Exists(key) {
			return fmt.Errorf("page artifact missing: %s", key)
		}
		images[i] = st.Path(key)
	}

	if err := api.ImportImagesFile(images, st.Path(outKey), nil, nil); err != nil {
		return fmt.Errorf("import page images: %w", err)
	}

	logger.Info("album exported", "key", outKey, "pages", countPages(st, outKey, len(pageKeys)))
	return nil
}

// countPages verifies the produced document, falling back to the expected
// count when the PDF cannot be re-read.
func countPages(st store.System, outKey string, expected int) int {
	data, err := st.ReadBinary(outKey)
	if err != nil {
		return expected
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return expected
	}
	return count
}
