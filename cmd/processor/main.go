package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"

	"rankcli/internal/config"
	"rankcli/internal/exporter"
	"rankcli/internal/extractor"
	"rankcli/internal/infrastructure"
	"rankcli/internal/ranking"
	"rankcli/internal/roster"
	"rankcli/pkg/contracts/domain"
)

// extractWorkers bounds concurrent PDF text extraction.
const extractWorkers = 4

// parsedDocument pairs one result file with its extraction output.
type parsedDocument struct {
	file    string
	desc    domain.ModuleDescriptor
	records []domain.GradeRecord
	err     error
}

func main() {
	rosterPath := flag.String("roster", "", "roster file (.csv, .xlsx or .xls) with an Index column")
	resultsDir := flag.String("results", "", "directory containing result PDFs")
	weightsPath := flag.String("weights", "", "YAML file mapping module codes to credit weights")
	format := flag.String("format", "csv", "export format: csv or xlsx")
	outDir := flag.String("out", "exports", "output directory for the ranked export")
	flag.Parse()

	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{Level: "info", Output: "stdout"})
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	if *rosterPath == "" || *resultsDir == "" || *weightsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), logger, *rosterPath, *resultsDir, *weightsPath, *format, *outDir); err != nil {
		logger.Error("processing failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, rosterPath, resultsDir, weightsPath, format, outDir string) error {
	table, err := loadRoster(rosterPath)
	if err != nil {
		return err
	}
	logger.Info("roster loaded",
		slog.String("file", rosterPath),
		slog.Int("students", table.Len()))

	weights, err := loadWeights(weightsPath)
	if err != nil {
		return err
	}

	files, err := listResultFiles(resultsDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no result PDFs found in %s", resultsDir)
	}

	docs, err := extractAll(ctx, logger, files)
	if err != nil {
		return err
	}

	// Merge in filename order so reruns are deterministic. Documents that
	// yielded nothing are skipped; the roster built so far stays intact.
	merged := 0
	for _, doc := range docs {
		if doc.err != nil {
			logger.Warn("skipping unprocessable document",
				slog.String("file", doc.file),
				slog.String("error", doc.err.Error()))
			continue
		}
		if table.HasModule(doc.desc.Code) {
			logger.Warn("module appears twice, replacing previous column",
				slog.String("module_code", doc.desc.Code),
				slog.String("file", doc.file))
			table = table.DropModule(doc.desc.Code)
		}
		table, err = table.Merge(doc.records, doc.desc.Code)
		if err != nil {
			return fmt.Errorf("failed to merge %s: %w", doc.file, err)
		}
		merged++
		logger.Info("document merged",
			slog.String("file", doc.file),
			slog.String("module_code", doc.desc.Code),
			slog.String("module_name", doc.desc.Name),
			slog.Int("records", len(doc.records)))
	}
	if merged == 0 {
		return fmt.Errorf("no documents could be processed")
	}

	ranked, err := ranking.Compute(table, weights)
	if err != nil {
		return err
	}
	logger.Info("ranking computed", slog.Int("students", ranked.Len()))

	store := exporter.NewStore(outDir, 0, logger)
	filename, err := store.Save(ranked, format)
	if err != nil {
		return err
	}

	fmt.Println(filepath.Join(outDir, filename))
	return nil
}

func loadRoster(path string) (*roster.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	return roster.Load(data, path)
}

func loadWeights(path string) (domain.WeightMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights: %w", err)
	}
	var weights domain.WeightMap
	if err := yaml.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("failed to parse weights: %w", err)
	}
	return weights, nil
}

func listResultFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// extractAll runs text extraction and parsing over all files with a
// bounded worker pool. Per-file failures are captured, not fatal.
func extractAll(ctx context.Context, logger *slog.Logger, files []string) ([]parsedDocument, error) {
	docs := make([]parsedDocument, len(files))
	texts := extractor.NewPDFTextExtractor(logger)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)
	for i, file := range files {
		g.Go(func() error {
			doc := parsedDocument{file: file}
			data, err := os.ReadFile(file)
			if err != nil {
				doc.err = err
				docs[i] = doc
				return nil
			}
			text, err := texts.ExtractText(ctx, data)
			if err != nil {
				doc.err = err
				docs[i] = doc
				return nil
			}
			doc.desc, doc.records, doc.err = extractor.Extract(text)
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
