// Copyright 2025 Canopy Search
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/canopysearch/catsync/core"
)

// hostedFileAdapter downloads a CSV or JSON catalog file from a URL.
// Any download or parse error fails the fetch.
type hostedFileAdapter struct {
	client *http.Client
	logger *slog.Logger
}

var _ Adapter = (*hostedFileAdapter)(nil)

func newHostedFileAdapter(client *http.Client, logger *slog.Logger) *hostedFileAdapter {
	return &hostedFileAdapter{
		client: client,
		logger: logger.With("component", "hosted-file-source"),
	}
}

func (a *hostedFileAdapter) Fetch(ctx context.Context, req *core.SyncRequest) ([]core.RawRecord, error) {
	cfg := req.SourceConfig.HostedFile
	if cfg == nil {
		return nil, fmt.Errorf("%w: hosted_file", core.ErrMissingVariant)
	}

	a.logger.Info("downloading catalog file", "url", cfg.FileURL, "format", cfg.FileFormat)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.FileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", cfg.FileURL, err)
	}
	if cfg.AuthType == core.AuthBasicAuth {
		httpReq.SetBasicAuth(cfg.Username, cfg.Password)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", cfg.FileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, cfg.FileURL, resp.StatusCode)
	}

	records, err := parseRecords(resp.Body, cfg.FileFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cfg.FileURL, err)
	}

	a.logger.Info("downloaded catalog file", "url", cfg.FileURL, "records", len(records))
	return records, nil
}

// parseRecords decodes a catalog file body into raw records.
func parseRecords(r io.Reader, format string) ([]core.RawRecord, error) {
	switch strings.ToLower(format) {
	case core.FormatCSV:
		return parseCSV(r)
	case core.FormatJSON:
		return parseJSON(r)
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidFileFormat, format)
	}
}

// parseCSV reads a header row and turns every following row into a record
// keyed by the header names.
func parseCSV(r io.Reader) ([]core.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var records []core.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}

		record := make(core.RawRecord, len(header))
		for i, name := range header {
			if i < len(row) {
				record[name] = row[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// parseJSON decodes a top-level JSON array of objects.
func parseJSON(r io.Reader) ([]core.RawRecord, error) {
	var records []core.RawRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return records, nil
}
