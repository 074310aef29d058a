package idhash

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// ComputeModelID computes the model_id of a serialized model artifact.
// Formula: base58(SHA256(artifact bytes)).
func ComputeModelID(artifact []byte) string {
	hash := sha256.Sum256(artifact)
	return base58.Encode(hash[:])
}
