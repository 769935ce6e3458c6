package lattice

import "context"

// Client is the contract implemented by *LatticeClient. Depend on it where a
// fake service is more convenient than an httptest server.
type Client interface {
	// Add submits a document. See AddRequest for the field rules.
	Add(ctx context.Context, req AddRequest) (AddResult, error)

	// AddText submits text asynchronously and returns the job id.
	AddText(ctx context.Context, text string) (string, error)

	// AddSource submits a source reference asynchronously and returns the job id.
	AddSource(ctx context.Context, source string) (string, error)

	// Progress returns the ingestion progress of a job in [0, 1].
	Progress(ctx context.Context, jobID string) (float64, error)

	// ProgressDetails returns the full job status payload.
	ProgressDetails(ctx context.Context, jobID string) (map[string]interface{}, error)

	// Search runs a query against the knowledge base.
	Search(ctx context.Context, req SearchRequest) ([]map[string]interface{}, error)

	// List returns one page of stored documents.
	List(ctx context.Context, req ListRequest) (map[string]interface{}, error)

	// Clear removes every document of the knowledge base.
	Clear(ctx context.Context, req ClearRequest) (map[string]interface{}, error)
}

// Logger is the logging contract of the client. *logger.Logger satisfies it.
//
//go:generate mockgen -source=interface.go -destination=mock_logger.go -package=lattice -exclude_interfaces=Client
type Logger interface {
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

var _ Client = (*LatticeClient)(nil)
