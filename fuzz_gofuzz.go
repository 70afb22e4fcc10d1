//go:build gofuzz

package secretstore

// Native fuzz targets are converted for libFuzzer by go-118-fuzz-build.
import _ "github.com/AdamKorcz/go-118-fuzz-build/testing"
