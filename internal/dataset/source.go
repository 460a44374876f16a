package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"shelter-map/internal/logger"
	"shelter-map/internal/shelter"
)

// Source 提供一份 FeatureCollection 文档
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Loader 产出按数据集顺序排列的避难所
type Loader interface {
	Name() string
	Load(ctx context.Context) ([]shelter.Shelter, Stats, error)
}

// DocumentLoader 读取 Source 并按 GeoJSON 解析
type DocumentLoader struct {
	Source Source
}

func (l DocumentLoader) Name() string { return l.Source.Name() }

func (l DocumentLoader) Load(ctx context.Context) ([]shelter.Shelter, Stats, error) {
	rc, err := l.Source.Open(ctx)
	if err != nil {
		return nil, Stats{}, err
	}
	defer rc.Close()
	return ParseFeatureCollection(rc)
}

// FileSource 本地文件
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file" }

func (s FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", s.Path, err)
	}
	return f, nil
}

// HTTPSource 通过 GET 拉取；非 200 视为装载失败
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Name() string { return "http" }

func (s HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dataset: build request: %w", err)
	}
	req.Header.Set("accept", "application/geo+json, application/json")
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	logger.L().Debug("dataset_http_get", "url", s.URL)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset: fetch %s: %w", s.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("dataset: fetch %s: unexpected status %s", s.URL, resp.Status)
	}
	return resp.Body, nil
}
