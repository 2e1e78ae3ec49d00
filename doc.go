// Package adreader extracts reporting data from advertising and spreadsheet
// APIs and writes it to files, object storage or BigQuery.
//
// # Readers
//
//   - dv360: Display & Video 360 Structured Data Files. A download task is
//     submitted, polled with capped exponential backoff, downloaded as a zip
//     archive and unpacked. Requested file types come out either as one
//     JSON stream or as one CSV stream per file.
//
//   - gsheets: one worksheet of a Google Sheets spreadsheet, authenticated
//     with service account fields, as JSON records keyed by the header row.
//
//   - facebook: Facebook Marketing API objects or insights for a list of
//     object ids. Requested fields may be paths into nested values, such as
//     actions[action_type:link_click].value, resolved by pkg/fieldpath.
//
// # Writers
//
// console, local, gcs, s3 and bigquery. File writers may gzip or zstd
// compress their output.
//
// # Quick Start
//
//	adreader config init adreader.yaml
//	export ADREADER_FACEBOOK_ACCESS_TOKEN=...
//	adreader read facebook --config adreader.yaml --writer local
//
// # Package Layout
//
//   - cmd/adreader: the CLI
//   - internal/pipeline: runs one reader into one writer
//   - pkg/connector: readers, writers and their registry
//   - pkg/exportjob: submit, poll and fetch of asynchronous export jobs
//   - pkg/fieldpath: field path expressions and record extraction
//   - pkg/config, pkg/logger, pkg/errors, pkg/metrics, pkg/observability:
//     configuration, zap logging, typed errors, Prometheus and tracing
package adreader
