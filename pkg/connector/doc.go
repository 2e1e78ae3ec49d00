// Package connector groups the readers and writers of adreader.
//
// # Architecture Overview
//
//   - core: the Reader, Writer and Stream interfaces. A Reader returns its
//     output as named streams; a Writer consumes one stream at a time.
//
//   - base: BaseConnector, embedded by every connector, with the shared
//     logger, retry policies and cleanup hooks.
//
//   - sources: dv360 (Structured Data Files via an asynchronous download
//     task), gsheets (one worksheet as records) and facebook (Marketing
//     API objects and insights, optionally as async report runs).
//
//   - destinations: local files, console, Cloud Storage, S3 and BigQuery.
//
//   - registry: name to factory lookup. Connectors register themselves in
//     init, so importing a connector package makes it available.
//
// # Example Usage
//
//	cfg, err := config.Load("facebook.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	reader, err := registry.CreateReader("facebook", cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	streams, err := reader.Read(ctx)
//
//	writer, err := registry.CreateWriter("local", cfg)
//	for _, s := range streams {
//		n, err := writer.Write(ctx, s)
//		...
//	}
//
// Options are validated before any remote call, and validation failures
// are errors of type errors.ErrorTypeConfig.
package connector
