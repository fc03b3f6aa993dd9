package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ProofStore persists payment-proof attachments and returns a reference.
type ProofStore interface {
	StoreProof(ctx context.Context, data []byte, mimeType, documentID, route string) (string, error)
}

// ProofStorage writes proofs as files under Dir. The reference is the path.
type ProofStorage struct {
	Dir string
	Now func() time.Time
}

func (s ProofStorage) StoreProof(ctx context.Context, data []byte, mimeType, documentID, route string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty proof attachment")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	// The uuid suffix keeps two proofs of the same document within one
	// second apart; O_EXCL refuses to overwrite in any case.
	name := fmt.Sprintf("comprobante_%s_%s_%s_%s%s",
		utils.SafeFilenamePart(documentID),
		utils.SafeFilenamePart(route),
		now().Format("20060102-150405"),
		uuid.NewString()[:8],
		proofExtension(data, mimeType),
	)
	path := filepath.Join(s.Dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// proofExtension trusts the declared mime type when it is known and sniffs
// the bytes otherwise.
func proofExtension(data []byte, mimeType string) string {
	declared := strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	if declared != "" {
		if m := mimetype.Lookup(declared); m != nil && m.Extension() != "" {
			return m.Extension()
		}
	}
	return mimetype.Detect(data).Extension()
}
