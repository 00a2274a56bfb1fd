package qrcredentials

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ImageRenderer turns a token into an image reference. Implementations must
// be pure functions of the token so a re-render always yields the same ref.
type ImageRenderer interface {
	RenderQr(token string) (string, error)
}

// PathRenderer derives a stable storage path from the token hash. The actual
// PNG is rendered on demand by the media service behind that path.
type PathRenderer struct {
	BasePath string
}

func NewPathRenderer(basePath string) *PathRenderer {
	return &PathRenderer{BasePath: basePath}
}

func (r *PathRenderer) RenderQr(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("cannot render QR for empty token")
	}
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%s/%s.png", r.BasePath, hex.EncodeToString(sum[:])), nil
}
