package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bibbank/vulntriage/internal/domain/errs"
)

// Artifact file names inside the artifact directory.
const (
	VectorizerFile = "tfidf_vectorizer.json"
	ClassifierFile = "rf_model.json"
	NoveltyFile    = "anomaly_model.json"
)

// ArtifactInfo describes one loaded artifact.
type ArtifactInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Path    string `json:"path"`
}

// Artifacts holds the three pretrained handles. It is loaded once at startup
// and shared read-only by every scoring call.
type Artifacts struct {
	Vectorizer *TfidfVectorizer
	Classifier *RandomForest
	Novelty    *IsolationForest
	info       []ArtifactInfo
}

// LoadArtifacts reads and validates every artifact in dir. Any missing or
// malformed artifact yields an error wrapping errs.ErrArtifactUnavailable.
func LoadArtifacts(dir string) (*Artifacts, error) {
	a := &Artifacts{
		Vectorizer: &TfidfVectorizer{},
		Classifier: &RandomForest{},
		Novelty:    &IsolationForest{},
	}

	loaders := []struct {
		name    string
		file    string
		target  any
		init    func() error
		version func() string
	}{
		{"vectorizer", VectorizerFile, a.Vectorizer, a.Vectorizer.init, func() string { return a.Vectorizer.Version }},
		{"classifier", ClassifierFile, a.Classifier, a.Classifier.init, func() string { return a.Classifier.Version }},
		{"novelty", NoveltyFile, a.Novelty, a.Novelty.init, func() string { return a.Novelty.Version }},
	}

	for _, l := range loaders {
		path := filepath.Join(dir, l.file)
		if err := readJSON(path, l.target); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errs.ErrArtifactUnavailable, l.name, err)
		}
		if err := l.init(); err != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", errs.ErrArtifactUnavailable, l.name, path, err)
		}
		a.info = append(a.info, ArtifactInfo{Name: l.name, Version: l.version(), Path: path})
	}

	dim := a.Vectorizer.Dim()
	if a.Classifier.NFeatures != dim {
		return nil, fmt.Errorf("%w: classifier expects %d features, vectorizer produces %d",
			errs.ErrArtifactUnavailable, a.Classifier.NFeatures, dim)
	}
	if a.Novelty.NFeatures != dim {
		return nil, fmt.Errorf("%w: novelty model expects %d features, vectorizer produces %d",
			errs.ErrArtifactUnavailable, a.Novelty.NFeatures, dim)
	}

	return a, nil
}

// Info returns name, version and path of every loaded artifact.
func (a *Artifacts) Info() []ArtifactInfo {
	out := make([]ArtifactInfo, len(a.info))
	copy(out, a.info)
	return out
}

func readJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
