package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"hash"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateETag derives a strong validator from a document id and its last update.
func GenerateETag(id primitive.ObjectID, updatedAt time.Time) string {
	h := sha1.New()
	h.Write([]byte(id.Hex()))
	h.Write([]byte(strconv.FormatInt(updatedAt.UnixNano(), 10)))
	return `"` + hex.EncodeToString(h.Sum(nil)) + `"`
}

// ListETag accumulates a validator for a whole result set. Adding, removing or
// updating any document changes it.
type ListETag struct {
	h hash.Hash
	n int
}

func NewListETag() *ListETag {
	return &ListETag{h: sha1.New()}
}

func (e *ListETag) Add(id primitive.ObjectID, updatedAt time.Time) {
	e.h.Write([]byte(id.Hex()))
	e.h.Write([]byte(strconv.FormatInt(updatedAt.UnixNano(), 10)))
	e.n++
}

func (e *ListETag) String() string {
	e.h.Write([]byte("n=" + strconv.Itoa(e.n)))
	return `"` + hex.EncodeToString(e.h.Sum(nil)) + `"`
}
