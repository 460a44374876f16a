package dataset

import (
	"fmt"
	"net/http"

	"shelter-map/internal/config"
)

// NewLoader 按 DATASET_SOURCE 选择数据源；lister 仅 postgres 源需要
func NewLoader(c config.Dataset, s3 config.S3, op config.Overpass, lister ShelterLister) (Loader, error) {
	switch c.Source {
	case "", "file":
		return DocumentLoader{Source: FileSource{Path: c.Path}}, nil
	case "http":
		if c.URL == "" {
			return nil, fmt.Errorf("dataset: http source needs DATASET_URL")
		}
		return DocumentLoader{Source: HTTPSource{URL: c.URL, Client: &http.Client{Timeout: c.HTTPTimeout}}}, nil
	case "s3":
		src, err := NewS3Source(s3)
		if err != nil {
			return nil, err
		}
		return DocumentLoader{Source: src}, nil
	case "postgres":
		if lister == nil {
			return nil, fmt.Errorf("dataset: postgres source needs a database connection")
		}
		return PostgresLoader{Store: lister}, nil
	case "overpass":
		return NewOverpassLoader(op), nil
	default:
		return nil, fmt.Errorf("dataset: unknown source %q", c.Source)
	}
}
