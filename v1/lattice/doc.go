// Package lattice is a client for the Lattice document indexing and
// retrieval service.
//
// A client is bound to one knowledge base and authenticates every request
// with a bearer API key. It offers five operations:
//
//   - Add, AddText, AddSource submit a document, usually as an async job
//   - Progress, ProgressDetails report the state of an ingestion job
//   - Search queries the knowledge base
//   - List pages through stored documents
//   - Clear removes every document of the knowledge base
//
// Basic usage:
//
//	client, err := lattice.Connect(os.Getenv("LATTICE_API_KEY"),
//	    lattice.WithKnowledgeBase("handbook"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	jobID, err := client.AddSource(ctx, "https://example.com/handbook.pdf")
//	if err != nil {
//	    return err
//	}
//
//	progress, err := client.Progress(ctx, jobID)
//
//	hits, err := client.Search(ctx, lattice.SearchRequest{Query: "vacation policy"})
//
// Response payloads are returned as decoded JSON. Numbers arrive as
// json.Number so ids and counters beyond 2^53 keep every digit.
//
// Errors:
//
// Every error belongs to exactly one kind and matches one sentinel with
// errors.Is: ErrValidation (rejected before any request), ErrTransport
// (no usable response), ErrService (HTTP status >= 400, see ServiceError)
// and ErrProtocol (response breaks the wire contract).
//
//	if se, ok := lattice.AsServiceError(err); ok && se.StatusCode == http.StatusNotFound {
//	    // unknown job
//	}
//
// Observability:
//
// Each operation opens an OpenTelemetry span, and the HTTP transport is
// instrumented with otelhttp. WithObserver and WithLogger attach the
// optional observer and logger; both are also picked up by FXModule.
//
// The client holds no mutable state after construction and is safe for
// concurrent use.
package lattice
