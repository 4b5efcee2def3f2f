package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/adalundhe/semhash/core/recommend"
	"github.com/adalundhe/semhash/core/vectorstore"
)

// ErrUnsupportedFormat is returned for files that are not JSON or YAML.
var ErrUnsupportedFormat = errors.New("unsupported corpus format")

// LoadDocuments reads a JSON or YAML array of documents from path.
// Documents without an ID are given a random UUID.
func LoadDocuments(path string) ([]vectorstore.Document, error) {
	docs, err := decodeFile[vectorstore.Document](path)
	if err != nil {
		return nil, err
	}
	AssignIDs(docs)
	return docs, nil
}

// LoadPapers reads a JSON or YAML array of papers from path.
func LoadPapers(path string) ([]recommend.Paper, error) {
	return decodeFile[recommend.Paper](path)
}

// Load reads documents from path, scanning it with cfg when it is a
// directory and decoding it otherwise.
func Load(ctx context.Context, path string, cfg ScanConfig) ([]vectorstore.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return LoadDocuments(path)
	}

	cfg.Root = path
	return Scan(ctx, cfg)
}

// AssignIDs fills empty document IDs in place with random UUIDs.
func AssignIDs(docs []vectorstore.Document) {
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = uuid.NewString()
		}
	}
}

func decodeFile[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var out []T
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &out)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &out)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}
