// Package naming holds the directory naming conventions shared between the
// harness and the external Python stages. Paths are produced here and consumed
// by the stage programs; nothing ever parses them back.
package naming

import (
	"fmt"
	"path/filepath"
)

// SimilarityFile is the fixed basename the search stage writes inside its
// per-search-type output directory.
const SimilarityFile = "similarity_results.json"

// PCASentinel asks the harness to resolve the PCA width from the model table.
const PCASentinel = "-1"

// defaultPCA maps a model name to its default PCA target dimensionality,
// used when the caller passes the -1 sentinel.
var defaultPCA = map[string]string{
	"fsd-sinet-vgg41-tlpf-1":     "256",
	"fsd-sinet-vgg42-aps-1":      "512",
	"fsd-sinet-vgg42-tlpf_aps-1": "512",
	"fsd-sinet-vgg42-tlpf-1":     "512",
}

// ResolvePCA returns the PCA width for a run. Anything other than the
// sentinel is carried verbatim; the built-in table wins over extra entries
// only when extra does not override the same model.
func ResolvePCA(model, arg string, extra map[string]string) (string, error) {
	if arg != PCASentinel {
		return arg, nil
	}
	if n, ok := extra[model]; ok {
		return n, nil
	}
	if n, ok := defaultPCA[model]; ok {
		return n, nil
	}
	return "", fmt.Errorf("no default PCA size known for model %q", model)
}

// Suffix builds the configuration suffix embedded in variant directory names:
// Agg_<aggregation>-PCA_<N>-Norm_<True|False>.
func Suffix(aggregation, pca string, normalize bool) string {
	norm := "True"
	if !normalize {
		norm = "False"
	}
	return fmt.Sprintf("Agg_%s-PCA_%s-Norm_%s", aggregation, pca, norm)
}

// EmbeddingsDir is the raw per-model embeddings directory.
func EmbeddingsDir(dataRoot, dataset, model string) string {
	return filepath.Join(dataRoot, "embeddings", dataset, model)
}

// VariantDir is the prepared-embeddings directory for one configuration.
func VariantDir(dataRoot, dataset, model, suffix string) string {
	return filepath.Join(dataRoot, "embeddings", dataset, model+"-"+suffix)
}

// SimilarityDir is the per-variant root the search stage writes under; the
// stage creates a <searchType>/ subdirectory inside it.
func SimilarityDir(dataRoot, dataset, model, suffix string) string {
	return filepath.Join(dataRoot, "similarity_results", dataset, model+"-"+suffix)
}

// SimilarityResultsPath is the JSON file the evaluation stage reads.
func SimilarityResultsPath(dataRoot, dataset, model, suffix, searchType string) string {
	return filepath.Join(SimilarityDir(dataRoot, dataset, model, suffix), searchType, SimilarityFile)
}

// EvaluationDir is where the evaluation stage writes its metric files.
func EvaluationDir(dataRoot, dataset, model, suffix string) string {
	return filepath.Join(dataRoot, "evaluation_results", dataset, model+"-"+suffix)
}
