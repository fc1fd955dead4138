package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/setanarut/asesheet/asejson"
	"github.com/setanarut/asesheet/aseparser"
	"github.com/setanarut/asesheet/sheet"
)

// entry is one loaded input file. doc is nil for JSON manifests.
type entry struct {
	path     string
	size     int64
	sheet    *sheet.Sheet
	doc      *aseparser.Document
	manifest *asejson.Manifest
}

func isManifest(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// loadAll loads every path, parsing the binary documents concurrently.
// Results keep the order of paths.
func loadAll(ctx context.Context, paths []string, workers int) ([]*entry, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files")
	}

	entries := make([]*entry, len(paths))
	var (
		binIdx  []int
		binData [][]byte
	)
	for i, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		e := &entry{path: path, size: fi.Size()}
		entries[i] = e

		if isManifest(path) {
			s, m, err := asejson.Load(os.DirFS(filepath.Dir(path)), filepath.Base(path), "")
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			e.sheet, e.manifest = s, m
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		binIdx = append(binIdx, i)
		binData = append(binData, data)
	}

	if len(binData) == 0 {
		return entries, nil
	}
	docs, err := aseparser.ParseAll(ctx, binData, aseparser.WithWorkers(workers))
	if err != nil {
		return nil, err
	}
	for j, doc := range docs {
		e := entries[binIdx[j]]
		e.doc = doc
		e.sheet = doc.Sheet()
	}
	return entries, nil
}
