package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/kamusis/answerhub/internal/dispatch"
)

func sha256Text(_ context.Context, c *dispatch.Call) (any, error) {
	text, err := c.Text("text")
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]), nil
}
