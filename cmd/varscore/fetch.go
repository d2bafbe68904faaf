package main

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/varscore/varscore/internal/config"
	"github.com/varscore/varscore/internal/score"
)

// Known score dataset downloads, keyed by algorithm. Remote algorithms
// have no dataset; their scores come from the scoring service.
var datasetURLs = map[score.Algorithm]string{
	score.REVEL: "https://rothsj06.dornsife.usc.edu/revel-v1.3_all_chromosomes.zip",
}

func newFetchCmd() *cobra.Command {
	var (
		sourceURL string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "fetch <algorithm>",
		Short: "Download the score dataset for a local algorithm",
		Long: `Fetch downloads the published score dataset a local algorithm's store
is built from, unpacking zip archives after download. Files that
already exist are not downloaded again.`,
		Example: `  varscore fetch revel
  varscore fetch revel --output /data/scores`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alg, err := score.ParseAlgorithm(args[0])
			if err != nil {
				return err
			}

			srcURL := sourceURL
			if srcURL == "" {
				srcURL = datasetURLs[alg]
				if srcURL == "" {
					return fmt.Errorf("no known dataset for %s; pass one with --url", alg)
				}
			}

			if outputDir == "" {
				cfg, err := config.New()
				if err != nil {
					return err
				}
				outputDir = filepath.Join(filepath.Dir(cfg.Store.Dir), "datasets")
			}
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			destPath := filepath.Join(outputDir, path.Base(srcURL))
			fmt.Printf("Downloading %s score dataset...\n", alg)
			if err := downloadFile(cmd.Context(), srcURL, destPath); err != nil {
				return err
			}
			dataPath, err := maybeExtract(destPath)
			if err != nil {
				return err
			}

			fmt.Printf("\nTo build the score store, run:\n")
			fmt.Printf("  varscore build %s %s\n", alg, dataPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceURL, "url", "", "Dataset URL (default: the algorithm's known dataset)")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default: <store-dir>/../datasets)")

	return cmd
}

// downloadFile downloads a URL to destPath with progress on stdout. The
// file lands under a temp name and is renamed into place once complete.
func downloadFile(ctx context.Context, url, destPath string) error {
	if info, err := os.Stat(destPath); err == nil {
		fmt.Printf("  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Printf("  Downloading %s...\n", filepath.Base(destPath))

	client := &http.Client{
		Timeout: 30 * time.Minute, // Long timeout for large files
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	var downloaded int64
	pw := &progressWriter{
		total:      resp.ContentLength,
		downloaded: &downloaded,
		lastPrint:  time.Now(),
	}

	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	f.Close()

	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Printf("    Done: %s\n", formatSize(downloaded))
	return nil
}

// maybeExtract unpacks a downloaded zip archive next to itself and
// returns the path build should read from. Other files come back
// unchanged; the gzip-aware source reader handles .gz directly.
func maybeExtract(archivePath string) (string, error) {
	if !strings.EqualFold(filepath.Ext(archivePath), ".zip") {
		return archivePath, nil
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	dir := filepath.Dir(archivePath)
	var first string
	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}
		dest := filepath.Join(dir, filepath.Base(member.Name))
		if err := extractMember(member, dest); err != nil {
			return "", err
		}
		fmt.Printf("  Extracted %s (%s)\n", filepath.Base(dest), formatSize(int64(member.UncompressedSize64)))
		if first == "" {
			first = dest
		}
	}
	if first == "" {
		return "", fmt.Errorf("archive %s has no files", filepath.Base(archivePath))
	}
	return first, nil
}

func extractMember(member *zip.File, dest string) error {
	rc, err := member.Open()
	if err != nil {
		return fmt.Errorf("open archive member %s: %w", member.Name, err)
	}
	defer rc.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("extract %s: %w", member.Name, err)
	}
	return f.Close()
}

// progressWriter tracks download progress.
type progressWriter struct {
	total      int64
	downloaded *int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	*pw.downloaded += int64(n)

	// Print progress every second
	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(*pw.downloaded) / float64(pw.total) * 100
			fmt.Printf("\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(*pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Printf("\r    Progress: %s  ", formatSize(*pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
