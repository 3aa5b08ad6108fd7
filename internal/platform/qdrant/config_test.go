package qdrant

import (
	"errors"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want ConfigErrorCode
	}{
		{name: "disabled", cfg: Config{}},
		{name: "valid", cfg: Config{URL: "http://qdrant:6333", Collection: "chunks", VectorDim: 1536}},
		{name: "relative url", cfg: Config{URL: "qdrant:6333/x", Collection: "chunks", VectorDim: 3}, want: ConfigErrorInvalidURL},
		{name: "no collection", cfg: Config{URL: "http://qdrant:6333", VectorDim: 3}, want: ConfigErrorMissingCollection},
		{name: "no dim", cfg: Config{URL: "http://qdrant:6333", Collection: "chunks"}, want: ConfigErrorInvalidVectorDim},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConfig(tc.cfg)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("ValidateConfig: unexpected error %v", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("ValidateConfig: want ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Code != tc.want {
				t.Fatalf("code: want=%s got=%s", tc.want, cfgErr.Code)
			}
		})
	}
}

func TestNormalizeDefaultsPrefix(t *testing.T) {
	cfg := Config{URL: " http://qdrant:6333/ ", Collection: " chunks "}.Normalize()
	if cfg.URL != "http://qdrant:6333" || cfg.Collection != "chunks" || cfg.NamespacePrefix != "ql" {
		t.Fatalf("unexpected normalized config: %+v", cfg)
	}
}
