// Package discover enumerates prepared variant directories for a model. The
// suffix recovered from a directory name is treated as an opaque string; it
// is handed to the variant pipeline, never parsed.
package discover

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Variants lists the configuration suffixes under embeddingsDir whose
// basename starts with "<model>-", in sorted order. A missing directory
// yields no variants rather than an error.
func Variants(embeddingsDir, model string) ([]string, error) {
	entries, err := os.ReadDir(embeddingsDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read embeddings dir: %w", err)
	}

	prefix := model + "-"
	var suffixes []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		suffixes = append(suffixes, strings.TrimPrefix(name, prefix))
	}
	sort.Strings(suffixes)
	return suffixes, nil
}
