package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/questlog-backend/internal/platform/qdrant"
)

// RetrievalBackend picks where chunk similarity search runs.
type RetrievalBackend string

const (
	RetrievalBackendStore  RetrievalBackend = "store"
	RetrievalBackendQdrant RetrievalBackend = "qdrant"
)

type RetrievalConfigErrorCode string

const (
	RetrievalConfigErrorUnknownBackend      RetrievalConfigErrorCode = "unknown_backend"
	RetrievalConfigErrorMissingQdrantURL    RetrievalConfigErrorCode = "missing_qdrant_url"
	RetrievalConfigErrorInvalidQdrantURL    RetrievalConfigErrorCode = "invalid_qdrant_url"
	RetrievalConfigErrorMissingQdrantColl   RetrievalConfigErrorCode = "missing_qdrant_collection"
	RetrievalConfigErrorInvalidQdrantVector RetrievalConfigErrorCode = "invalid_qdrant_vector_dim"
	RetrievalConfigErrorQdrantUnknown       RetrievalConfigErrorCode = "qdrant_config_error"
)

type RetrievalConfigError struct {
	Code    RetrievalConfigErrorCode
	Backend RetrievalBackend
	Cause   error
}

func (e *RetrievalConfigError) Error() string {
	if e == nil {
		return "invalid retrieval config"
	}
	return fmt.Sprintf("invalid retrieval config (code=%s backend=%q): %v", e.Code, e.Backend, e.Cause)
}

func (e *RetrievalConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveRetrievalBackend normalizes the backend name and, for qdrant, checks
// the connection settings. An empty name means the in-database scan.
func resolveRetrievalBackend(backend RetrievalBackend, qcfg qdrant.Config) (RetrievalBackend, error) {
	b := RetrievalBackend(strings.ToLower(strings.TrimSpace(string(backend))))
	switch b {
	case "", RetrievalBackendStore:
		return RetrievalBackendStore, nil
	case RetrievalBackendQdrant:
		qcfg = qcfg.Normalize()
		if !qcfg.Enabled() {
			return "", &RetrievalConfigError{
				Code:    RetrievalConfigErrorMissingQdrantURL,
				Backend: b,
				Cause:   errors.New("qdrant.url is required for the qdrant backend"),
			}
		}
		if err := qdrant.ValidateConfig(qcfg); err != nil {
			return "", mapQdrantConfigError(err)
		}
		return b, nil
	default:
		return "", &RetrievalConfigError{
			Code:    RetrievalConfigErrorUnknownBackend,
			Backend: b,
			Cause:   fmt.Errorf("backend must be %q or %q", RetrievalBackendStore, RetrievalBackendQdrant),
		}
	}
}

func mapQdrantConfigError(err error) error {
	code := RetrievalConfigErrorQdrantUnknown
	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorInvalidURL:
			code = RetrievalConfigErrorInvalidQdrantURL
		case qdrant.ConfigErrorMissingCollection:
			code = RetrievalConfigErrorMissingQdrantColl
		case qdrant.ConfigErrorInvalidVectorDim:
			code = RetrievalConfigErrorInvalidQdrantVector
		}
	}
	return &RetrievalConfigError{Code: code, Backend: RetrievalBackendQdrant, Cause: err}
}
