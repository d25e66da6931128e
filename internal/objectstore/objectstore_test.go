package objectstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/worstcrm/config"
)

func TestKey(t *testing.T) {
	k, err := Key("acct", "proj", "42", "contract.pdf")
	if err != nil || k != "acct/proj/42/contract.pdf" {
		t.Fatalf("Key: %q %v", k, err)
	}
	for _, bad := range [][]string{nil, {"acct", ""}, {"acct", ".."}, {"acct", "a/b"}, {"acct", `a\b`}} {
		if _, err := Key(bad...); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("%v: expected ErrInvalidKey, got %v", bad, err)
		}
	}
}

// Presigning is computed locally once a region is known.
func TestMinioPresign(t *testing.T) {
	m, err := NewMinio(config.S3Config{
		Endpoint:        "localhost:9000",
		Bucket:          "attachments",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		URLExpiry:       5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewMinio: %v", err)
	}
	get, err := m.PresignGet(context.Background(), "acct/contract.pdf")
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if !strings.HasPrefix(get, "http://localhost:9000/attachments/acct/contract.pdf?") || !strings.Contains(get, "X-Amz-Signature=") {
		t.Fatalf("unexpected get url: %s", get)
	}
	put, err := m.PresignPut(context.Background(), "acct/contract.pdf")
	if err != nil {
		t.Fatalf("PresignPut: %v", err)
	}
	if !strings.Contains(put, "X-Amz-Expires=300") {
		t.Fatalf("unexpected put url: %s", put)
	}
}
